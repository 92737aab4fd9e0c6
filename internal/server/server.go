package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/room"
)

// eventBuffer bounds how far the fan-out may lag the tables before events
// are dropped for everyone.
const eventBuffer = 1024

// Server exposes the room over WebSockets: commands in, events out. It
// subscribes to the room's bus and forwards each event to every connection
// watching that table, adding private frames (hole cards, action prompts)
// for the players concerned.
type Server struct {
	addr     string
	room     *room.Room
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	events     chan game.Event

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	http        *http.Server
}

// NewServer wires a server to a room. The connection registry and event
// fan-out start immediately; Start only binds the listener.
func NewServer(addr string, r *room.Room, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		room: r,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		events:      make(chan game.Event, eventBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}

	// The bus delivers while the table lock is held, so only hand off here.
	s.unsubscribe = r.Bus().Subscribe(func(ev game.Event) {
		select {
		case s.events <- ev:
		default:
			s.logger.Warn("event buffer full, dropping event",
				"type", ev.Type(), "table", ev.Table())
		}
	})

	go s.run()
	return s
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start blocks serving the listener until Shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{Addr: s.addr, Handler: s.Handler()}
	s.logger.Info("starting websocket server", "addr", s.addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the fan-out, closes every connection and stops the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

// run owns the connection registry and the event fan-out.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			if ok {
				s.cleanupConnection(conn)
				_ = conn.Close()
			}
			s.logger.Info("client disconnected", "total", total)

		case ev := <-s.events:
			s.dispatchEvent(ev)

		case <-s.ctx.Done():
			return
		}
	}
}

// cleanupConnection removes a disconnected player from every table they
// were seated at. Mid-hand the table folds them when their turn comes.
func (s *Server) cleanupConnection(conn *Connection) {
	playerID := conn.PlayerID()
	if playerID == "" {
		return
	}
	for _, tableID := range conn.seatedTables() {
		s.logger.Info("removing disconnected player", "player", playerID, "table", tableID)
		if err := s.room.LeaveTable(tableID, playerID); err != nil && !game.IsNotFound(err) {
			s.logger.Debug("disconnect cleanup", "player", playerID, "table", tableID, "error", err)
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// dispatchEvent forwards one event to every watcher of its table, then
// sends the private frames the event implies. Runs on the fan-out
// goroutine, never under a table lock.
func (s *Server) dispatchEvent(ev game.Event) {
	msg, err := eventMessage(ev)
	if err != nil {
		s.logger.Error("failed to encode event", "type", ev.Type(), "error", err)
		return
	}
	s.broadcast(ev.Table(), msg)

	switch e := ev.(type) {
	case game.HandStarted:
		s.sendHoleCards(e)
		s.promptToAct(e.TableID, e.HandID, e.NextToAct)
	case game.PlayerActed:
		s.promptToAct(e.TableID, e.HandID, e.NextToAct)
	case game.CardsRevealed:
		s.promptToAct(e.TableID, e.HandID, e.NextToAct)
	}
}

// broadcast sends a message to every connection watching the table.
func (s *Server) broadcast(tableID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.watches(tableID) {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Debug("failed to send to client", "player", conn.PlayerID(), "error", err)
			}
		}
	}
}

// sendToPlayer delivers a message to every connection authenticated as the
// player, returning whether anyone received it.
func (s *Server) sendToPlayer(playerID string, msg *Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := false
	for conn := range s.connections {
		if conn.PlayerID() == playerID {
			if err := conn.SendMessage(msg); err == nil {
				sent = true
			}
		}
	}
	return sent
}

// sendHoleCards tells each seated, connected player what they were dealt.
// Cards travel only to their owner.
func (s *Server) sendHoleCards(e game.HandStarted) {
	for _, seat := range e.Seats {
		view, err := s.room.View(e.TableID, seat.PlayerID)
		if err != nil || view.YourSeat < 0 {
			continue
		}
		var data *HoleCardsData
		for _, sv := range view.Seats {
			if sv.Number == view.YourSeat && len(sv.HoleCards) > 0 {
				data = &HoleCardsData{
					TableID: e.TableID,
					HandID:  e.HandID,
					Seat:    sv.Number,
					Cards:   sv.HoleCards,
				}
			}
		}
		if data == nil {
			continue
		}
		msg, err := NewMessage(MessageTypeHoleCards, data)
		if err != nil {
			s.logger.Error("failed to encode hole cards", "error", err)
			continue
		}
		s.sendToPlayer(seat.PlayerID, msg)
	}
}

// promptToAct tells the player on the clock what they may do and how long
// they have.
func (s *Server) promptToAct(tableID, handID string, seat int) {
	if seat < 0 {
		return
	}

	// Resolve the seat to a player through the public view.
	lobby, err := s.room.View(tableID, "")
	if err != nil {
		return
	}
	playerID := ""
	for _, sv := range lobby.Seats {
		if sv.Number == seat {
			playerID = sv.PlayerID
			break
		}
	}
	if playerID == "" {
		return
	}

	view, err := s.room.View(tableID, playerID)
	if err != nil || len(view.ValidActions) == 0 {
		return
	}
	msg, err := NewMessage(MessageTypeActionRequired, ActionRequiredData{
		TableID:        tableID,
		HandID:         handID,
		Seat:           seat,
		ValidActions:   view.ValidActions,
		TimeoutSeconds: view.TurnTimeout,
		State:          view,
	})
	if err != nil {
		s.logger.Error("failed to encode action prompt", "error", err)
		return
	}
	if !s.sendToPlayer(playerID, msg) {
		s.logger.Debug("acting player not connected", "player", playerID, "table", tableID)
	}
}
