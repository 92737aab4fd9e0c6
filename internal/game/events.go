package game

import (
	"time"

	"github.com/feltcraft/cardroom/internal/deck"
)

// EventType names a domain event on the wire.
type EventType string

const (
	EventHandStarted   EventType = "hand_started"
	EventPlayerActed   EventType = "player_acted"
	EventCardsRevealed EventType = "community_cards_revealed"
	EventPotAwarded    EventType = "pot_awarded"
	EventHandEnded     EventType = "hand_ended"
	EventTableUpdated  EventType = "table_updated"
)

// Event is a fact about a table that already happened. Commands return
// batches of events after they apply; transports fan them out to clients.
// Events never carry another player's hole cards before showdown.
type Event interface {
	Type() EventType
	Table() string
}

// Meta carries the fields every event shares.
type Meta struct {
	TableID string    `json:"table_id"`
	HandID  string    `json:"hand_id,omitempty"`
	At      time.Time `json:"at"`
}

func (m Meta) Table() string { return m.TableID }

// NewMeta stamps an event with its table, hand and wall-clock time.
func NewMeta(tableID, handID string) Meta {
	return Meta{TableID: tableID, HandID: handID, At: time.Now().UTC()}
}

// SeatState is the public view of one player in an event payload.
type SeatState struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Stack    int    `json:"stack"`
	Bet      int    `json:"bet,omitempty"`
	Folded   bool   `json:"folded,omitempty"`
	AllIn    bool   `json:"all_in,omitempty"`
}

// HandStarted announces a new hand: seating, button and blinds. Hole cards
// travel separately to each owner.
type HandStarted struct {
	Meta
	Button     int         `json:"button"`
	SmallBlind int         `json:"small_blind"`
	BigBlind   int         `json:"big_blind"`
	Seats      []SeatState `json:"seats"`
	NextToAct  int         `json:"next_to_act"`
}

func (HandStarted) Type() EventType { return EventHandStarted }

// PlayerActed records one validated betting decision. Forced marks folds
// injected by the turn timer. NextToAct is -1 when the street or hand ended
// with this action; the follow-up event carries the new actor.
type PlayerActed struct {
	Meta
	Seat      int    `json:"seat"`
	PlayerID  string `json:"player_id"`
	Action    Action `json:"action"`
	Amount    int    `json:"amount,omitempty"`
	AllIn     bool   `json:"all_in,omitempty"`
	Forced    bool   `json:"forced,omitempty"`
	Pot       int    `json:"pot"`
	NextToAct int    `json:"next_to_act"`
}

func (PlayerActed) Type() EventType { return EventPlayerActed }

// CardsRevealed carries newly dealt community cards along with the full
// board for late joiners.
type CardsRevealed struct {
	Meta
	Phase     Phase       `json:"phase"`
	Cards     []deck.Card `json:"cards"`
	Board     []deck.Card `json:"board"`
	Pot       int         `json:"pot"`
	NextToAct int         `json:"next_to_act"`
}

func (CardsRevealed) Type() EventType { return EventCardsRevealed }

// PotShare is one player's cut of one pot.
type PotShare struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Amount   int    `json:"amount"`
}

// PotAwarded reports the resolution of a single pot. Pots are numbered from
// the main pot outward.
type PotAwarded struct {
	Meta
	PotIndex int        `json:"pot_index"`
	Amount   int        `json:"amount"`
	Shares   []PotShare `json:"shares"`
}

func (PotAwarded) Type() EventType { return EventPotAwarded }

// Showing is a hand revealed at showdown.
type Showing struct {
	Seat      int         `json:"seat"`
	PlayerID  string      `json:"player_id"`
	HoleCards []deck.Card `json:"hole_cards"`
	HandName  string      `json:"hand_name"`
}

// HandEnded closes a hand with final stacks and, after a showdown, the
// revealed hands. A hand won by everyone else folding reveals nothing.
// Summary is a one-line account of who won what, for client logs.
type HandEnded struct {
	Meta
	Board    []deck.Card `json:"board,omitempty"`
	Showdown bool        `json:"showdown"`
	Showings []Showing   `json:"showings,omitempty"`
	Seats    []SeatState `json:"seats"`
	Summary  string      `json:"summary"`
}

func (HandEnded) Type() EventType { return EventHandEnded }

// TableUpdated reports lifecycle changes outside a hand: players joining or
// leaving, stacks after a buy-in, the table opening or closing.
type TableUpdated struct {
	Meta
	Name       string      `json:"name"`
	Status     string      `json:"status"`
	Button     int         `json:"button"`
	Seats      []SeatState `json:"seats"`
	HandInPlay bool        `json:"hand_in_play"`
}

func (TableUpdated) Type() EventType { return EventTableUpdated }

// Publisher receives event batches after a command applies. Implementations
// must not block; slow consumers buffer or drop on their side.
type Publisher interface {
	Publish(events ...Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(events ...Event)

func (f PublisherFunc) Publish(events ...Event) { f(events...) }

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(...Event) {}
