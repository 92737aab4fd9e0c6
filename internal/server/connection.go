package server

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/gameid"
	"github.com/feltcraft/cardroom/internal/room"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client: a read pump dispatching commands
// into the room and a write pump draining the send buffer.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	playerID string
	name     string
	// seated tracks tables where this player holds a seat, watching every
	// table whose events the client receives. Seating implies watching.
	seated   map[string]bool
	watching map[string]bool

	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		server:   server,
		logger:   logger.WithPrefix("conn"),
		ctx:      ctx,
		cancel:   cancel,
		seated:   make(map[string]bool),
		watching: make(map[string]bool),
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer closes the
// connection rather than stalling the caller.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel already closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection", "player", c.PlayerID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the authenticated player id, empty before auth.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Name returns the display name chosen at auth.
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Connection) setIdentity(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

func (c *Connection) addSeat(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seated[tableID] = true
	c.watching[tableID] = true
}

func (c *Connection) dropSeat(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seated, tableID)
}

func (c *Connection) watch(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watching[tableID] = true
}

func (c *Connection) watches(tableID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watching[tableID]
}

// seatedTables returns the tables where this player holds a seat, for
// disconnect cleanup.
func (c *Connection) seatedTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tables := make([]string, 0, len(c.seated))
	for id := range c.seated {
		tables = append(tables, id)
	}
	sort.Strings(tables)
	return tables
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes one command frame from the client.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse auth data")
			return
		}
		c.handleAuth(msg.RequestID, data)

	case MessageTypeCreateTable:
		var data room.CreateTableParams
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse create table data")
			return
		}
		c.handleCreateTable(msg.RequestID, data)

	case MessageTypeListTables:
		c.handleListTables(msg.RequestID)

	case MessageTypeJoinTable:
		var data JoinTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse join table data")
			return
		}
		c.handleJoinTable(msg.RequestID, data)

	case MessageTypeLeaveTable:
		var data LeaveTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse leave table data")
			return
		}
		c.handleLeaveTable(msg.RequestID, data)

	case MessageTypeStartHand:
		var data StartHandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse start hand data")
			return
		}
		c.handleStartHand(msg.RequestID, data)

	case MessageTypeAct:
		var data ActData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse act data")
			return
		}
		c.handleAct(msg.RequestID, data)

	case MessageTypeGetState:
		var data GetStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "failed to parse get state data")
			return
		}
		c.handleGetState(msg.RequestID, data)

	default:
		c.sendError(msg.RequestID, "unknown_message_type", "unknown message type: "+msg.Type.String())
	}
}

// respond sends a reply frame echoing the request id.
func (c *Connection) respond(requestID string, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("failed to build response", "type", messageType, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

// sendError sends an error frame. Codes come from the game error taxonomy
// where a command failed inside the room.
func (c *Connection) sendError(requestID, code, message string) {
	c.respond(requestID, MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}

// commandError maps a room failure onto the wire.
func (c *Connection) commandError(requestID string, err error) {
	code := game.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	c.sendError(requestID, code, err.Error())
}

// authed returns the player id, sending not_authenticated when missing.
func (c *Connection) authed(requestID string) (string, bool) {
	playerID := c.PlayerID()
	if playerID == "" {
		c.sendError(requestID, "not_authenticated", "must authenticate first")
		return "", false
	}
	return playerID, true
}

func (c *Connection) handleAuth(requestID string, data AuthData) {
	if data.Name == "" {
		c.sendError(requestID, "invalid_auth", "player name required")
		return
	}

	playerID := data.PlayerID
	if playerID == "" {
		playerID = gameid.NewPlayerID()
	} else if err := gameid.Validate(playerID, gameid.PrefixPlayer); err != nil {
		c.sendError(requestID, "invalid_auth", "malformed player id")
		return
	}

	c.setIdentity(playerID, data.Name)
	c.logger.Info("authenticated", "player", playerID, "name", data.Name)

	c.respond(requestID, MessageTypeAuthResponse, AuthResponseData{
		PlayerID: playerID,
		Name:     data.Name,
	})
}

func (c *Connection) handleCreateTable(requestID string, params room.CreateTableParams) {
	if _, ok := c.authed(requestID); !ok {
		return
	}

	info, err := c.server.room.CreateTable(params)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.watch(info.TableID)
	c.respond(requestID, MessageTypeTableCreated, info)
}

func (c *Connection) handleListTables(requestID string) {
	c.respond(requestID, MessageTypeTableList, TableListData{
		Tables: c.server.room.ListTables(),
	})
}

func (c *Connection) handleJoinTable(requestID string, data JoinTableData) {
	playerID, ok := c.authed(requestID)
	if !ok {
		return
	}

	seat := -1
	if data.Seat != nil {
		seat = *data.Seat
	}
	seated, err := c.server.room.JoinTable(data.TableID, playerID, c.Name(), seat, data.BuyIn)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.addSeat(data.TableID)

	state, err := c.server.room.View(data.TableID, playerID)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.respond(requestID, MessageTypeTableJoined, TableJoinedData{
		TableID: data.TableID,
		Seat:    seated,
		State:   state,
	})
}

func (c *Connection) handleLeaveTable(requestID string, data LeaveTableData) {
	playerID, ok := c.authed(requestID)
	if !ok {
		return
	}

	if err := c.server.room.LeaveTable(data.TableID, playerID); err != nil {
		c.commandError(requestID, err)
		return
	}
	c.dropSeat(data.TableID)
	c.respond(requestID, MessageTypeTableLeft, TableLeftData{TableID: data.TableID})
}

func (c *Connection) handleStartHand(requestID string, data StartHandData) {
	if _, ok := c.authed(requestID); !ok {
		return
	}

	handID, err := c.server.room.StartHand(data.TableID)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.respond(requestID, MessageTypeHandAck, HandAckData{
		TableID: data.TableID,
		HandID:  handID,
	})
}

func (c *Connection) handleAct(requestID string, data ActData) {
	playerID, ok := c.authed(requestID)
	if !ok {
		return
	}

	action, err := game.ParseAction(data.Action)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	state, err := c.server.room.Act(data.TableID, playerID, action, data.Amount)
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.respond(requestID, MessageTypeState, StateData{
		TableID: data.TableID,
		State:   state,
	})
}

// handleGetState returns the viewer's projection of a table and subscribes
// the connection to its events, so spectators can follow along.
func (c *Connection) handleGetState(requestID string, data GetStateData) {
	state, err := c.server.room.View(data.TableID, c.PlayerID())
	if err != nil {
		c.commandError(requestID, err)
		return
	}
	c.watch(data.TableID)
	c.respond(requestID, MessageTypeState, StateData{
		TableID: data.TableID,
		State:   state,
	})
}
