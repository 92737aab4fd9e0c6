package server

import (
	"encoding/json"
	"time"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/table"
)

// Message is the envelope every WebSocket frame uses, in both directions.
// Responses to a command echo its RequestID; events carry none.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// eventMessage wraps a game event for the wire under its event type name.
func eventMessage(ev game.Event) (*Message, error) {
	return NewMessage(MessageType(ev.Type()), ev)
}

// Client → Server Messages

type AuthData struct {
	Name string `json:"name"`
	// PlayerID lets a client resume an identity from a previous
	// connection. Empty mints a new one.
	PlayerID string `json:"player_id,omitempty"`
}

type JoinTableData struct {
	TableID string `json:"table_id"`
	// Seat is the requested seat number; nil takes the lowest free seat.
	Seat  *int `json:"seat,omitempty"`
	BuyIn int  `json:"buy_in"`
}

type LeaveTableData struct {
	TableID string `json:"table_id"`
}

type StartHandData struct {
	TableID string `json:"table_id"`
}

type ActData struct {
	TableID string `json:"table_id"`
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
}

type GetStateData struct {
	TableID string `json:"table_id"`
}

// Server → Client Messages

type AuthResponseData struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableListData struct {
	Tables []table.Info `json:"tables"`
}

type TableJoinedData struct {
	TableID string     `json:"table_id"`
	Seat    int        `json:"seat"`
	State   table.View `json:"state"`
}

type TableLeftData struct {
	TableID string `json:"table_id"`
}

type HandAckData struct {
	TableID string `json:"table_id"`
	HandID  string `json:"hand_id"`
}

// HoleCardsData is sent privately to each seated player when a hand is
// dealt. It is the only frame that carries unrevealed cards.
type HoleCardsData struct {
	TableID string      `json:"table_id"`
	HandID  string      `json:"hand_id"`
	Seat    int         `json:"seat"`
	Cards   []deck.Card `json:"cards"`
}

// ActionRequiredData is sent privately to the player whose turn it is.
type ActionRequiredData struct {
	TableID        string             `json:"table_id"`
	HandID         string             `json:"hand_id"`
	Seat           int                `json:"seat"`
	ValidActions   []game.ValidAction `json:"valid_actions"`
	TimeoutSeconds int                `json:"timeout_seconds,omitempty"`
	State          table.View         `json:"state"`
}

type StateData struct {
	TableID string     `json:"table_id"`
	State   table.View `json:"state"`
}
