// Package table hosts the seat lifecycle around the hand engine: joining
// and leaving, button movement, the turn clock and snapshots. A Table
// serializes everything behind one mutex; the engine below it stays pure.
package table

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/gameid"
)

// Status is the table's lifecycle state between hands.
type Status uint8

const (
	StatusWaitingPlayers Status = iota + 1
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusWaitingPlayers:
		return "waiting_players"
	case StatusPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Config fixes a table's rules. Zero values are filled in by Normalize.
type Config struct {
	TableID    string `json:"table_id"`
	Name       string `json:"name"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	MinBuyIn   int    `json:"min_buy_in"`
	MaxBuyIn   int    `json:"max_buy_in"`
	// TurnTimeout is how long a player may sit on their turn before the
	// table folds for them. Zero disables the turn clock.
	TurnTimeout time.Duration `json:"turn_timeout"`
	// AutoDeal starts the next hand DealDelay after the previous one ends,
	// as long as two players with chips are seated.
	AutoDeal  bool          `json:"auto_deal"`
	DealDelay time.Duration `json:"deal_delay"`
}

// Normalize fills defaults and validates the result.
func (c *Config) Normalize() error {
	if c.TableID == "" {
		return game.Validationf("missing_table_id", "table config needs an id")
	}
	if c.Name == "" {
		c.Name = c.TableID
	}
	if c.MaxSeats == 0 {
		c.MaxSeats = 9
	}
	if c.MaxSeats < 2 || c.MaxSeats > 10 {
		return game.Validationf("bad_seats", "max seats %d outside 2..10", c.MaxSeats)
	}
	if c.SmallBlind <= 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return game.Validationf("bad_blinds", "invalid blinds %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.MinBuyIn == 0 {
		c.MinBuyIn = 20 * c.BigBlind
	}
	if c.MaxBuyIn == 0 {
		c.MaxBuyIn = 100 * c.BigBlind
	}
	if c.MinBuyIn < c.BigBlind {
		return game.Validationf("bad_buy_in", "minimum buy-in %d below the big blind", c.MinBuyIn)
	}
	if c.MinBuyIn > c.MaxBuyIn {
		return game.Validationf("bad_buy_in", "buy-in range %d..%d inverted", c.MinBuyIn, c.MaxBuyIn)
	}
	if c.TurnTimeout < 0 || c.DealDelay < 0 {
		return game.Validationf("bad_timeout", "timeouts must not be negative")
	}
	if c.AutoDeal && c.DealDelay == 0 {
		c.DealDelay = 2 * time.Second
	}
	return nil
}

// Deps are the table's runtime collaborators. Zero fields get working
// defaults: a real clock, the default logger, a publisher that drops
// events and no persistence.
type Deps struct {
	Clock     quartz.Clock
	Logger    *log.Logger
	Publisher game.Publisher
	// Save is called with a fresh snapshot after every applied change,
	// before events are published. Errors are logged, not propagated: the
	// in-memory table stays authoritative.
	Save func(*Snapshot) error
	// HandOptions supplies engine options per hand, e.g. a seeded shuffler
	// or a stacked deck in tests.
	HandOptions func() []game.HandOption
}

func (d *Deps) normalize() {
	if d.Clock == nil {
		d.Clock = quartz.NewReal()
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Publisher == nil {
		d.Publisher = game.NopPublisher{}
	}
}

// Seat is one occupied position. The stack here is authoritative between
// hands; during a hand the engine's player state is.
type Seat struct {
	Number   int    `json:"number"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Stack    int    `json:"stack"`
}

// Table is one poker table. All methods are safe for concurrent use;
// operations on the same table apply in lock order.
type Table struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps

	status   Status
	seats    map[int]*Seat
	button   int
	hand     *game.Hand
	handNo   uint64
	departed map[string]bool

	turnSeq   uint64
	turnTimer *quartz.Timer
	dealTimer *quartz.Timer
	closed    bool
}

// New builds an empty table from the config.
func New(cfg Config, deps Deps) (*Table, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	deps.normalize()
	return &Table{
		cfg:      cfg,
		deps:     deps,
		status:   StatusWaitingPlayers,
		seats:    make(map[int]*Seat),
		button:   -1,
		departed: make(map[string]bool),
	}, nil
}

// ID returns the table identifier.
func (t *Table) ID() string { return t.cfg.TableID }

// Info is a lobby-level summary.
type Info struct {
	TableID    string `json:"table_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Seated     int    `json:"seated"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	MinBuyIn   int    `json:"min_buy_in"`
	MaxBuyIn   int    `json:"max_buy_in"`
}

// Info summarizes the table for lobby listings.
func (t *Table) Info() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Info{
		TableID:    t.cfg.TableID,
		Name:       t.cfg.Name,
		Status:     t.status.String(),
		Seated:     len(t.seats),
		MaxSeats:   t.cfg.MaxSeats,
		SmallBlind: t.cfg.SmallBlind,
		BigBlind:   t.cfg.BigBlind,
		MinBuyIn:   t.cfg.MinBuyIn,
		MaxBuyIn:   t.cfg.MaxBuyIn,
	}
}

// Join seats a player with a buy-in and returns the seat taken. Pass a
// negative seat number for the lowest free seat. Joining during a hand is
// allowed; the player is dealt in from the next hand.
func (t *Table) Join(playerID, name string, seatNo, buyIn int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return -1, game.Conflictf("table_closed", "table %s is closed", t.cfg.TableID)
	}
	if playerID == "" {
		return -1, game.Validationf("missing_player", "join needs a player id")
	}
	if t.departed[playerID] {
		return -1, game.Conflictf("leaving", "player %s is leaving after this hand", playerID)
	}
	if s := t.seatByPlayerLocked(playerID); s != nil {
		return -1, game.Conflictf("already_seated", "player %s already sits at seat %d", playerID, s.Number)
	}
	if buyIn < t.cfg.MinBuyIn || buyIn > t.cfg.MaxBuyIn {
		return -1, game.Validationf("buy_in_range", "buy-in %d outside %d..%d", buyIn, t.cfg.MinBuyIn, t.cfg.MaxBuyIn)
	}
	if seatNo < 0 {
		free := -1
		for n := 0; n < t.cfg.MaxSeats; n++ {
			if _, taken := t.seats[n]; !taken {
				free = n
				break
			}
		}
		if free < 0 {
			return -1, game.RuleViolationf("table_full", "all %d seats are taken", t.cfg.MaxSeats)
		}
		seatNo = free
	} else {
		if seatNo >= t.cfg.MaxSeats {
			return -1, game.Validationf("bad_seat", "seat %d outside 0..%d", seatNo, t.cfg.MaxSeats-1)
		}
		if _, taken := t.seats[seatNo]; taken {
			return -1, game.Conflictf("seat_taken", "seat %d is taken", seatNo)
		}
	}
	if name == "" {
		name = playerID
	}
	t.seats[seatNo] = &Seat{Number: seatNo, PlayerID: playerID, Name: name, Stack: buyIn}
	t.deps.Logger.Info("player joined", "table", t.cfg.TableID, "player", playerID, "seat", seatNo, "buy_in", buyIn)

	if t.hand == nil {
		t.scheduleAutoDealLocked()
	}
	t.commitLocked(t.tableUpdatedLocked())
	return seatNo, nil
}

// Leave removes a player. A seat the running hand was dealt stays
// occupied until the hand settles, even when its player already folded;
// the player is folded when action reaches them (at once if it is their
// turn). Any other seat empties immediately.
func (t *Table) Leave(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	seat := t.seatByPlayerLocked(playerID)
	if seat == nil {
		return game.NotFoundf("not_seated", "player %s is not seated", playerID)
	}

	var events []game.Event
	dealtIn := false
	if t.hand != nil {
		if _, ok := t.hand.PlayerBySeat(seat.Number); ok {
			dealtIn = true
		}
	}
	settled := false
	if dealtIn {
		// The hand resolves players by seat number, so the seat cannot be
		// reissued before settle.
		t.departed[playerID] = true
		if acting, ok := t.hand.ActingSeat(); ok && acting == seat.Number {
			if err := t.hand.ForceFold(seat.Number); err != nil {
				t.deps.Logger.Error("folding leaving player", "table", t.cfg.TableID, "seat", seat.Number, "err", err)
			} else {
				events = append(events, t.hand.TakeEvents()...)
				events = append(events, t.postApplyLocked()...)
				settled = t.hand == nil
			}
		}
	} else {
		delete(t.seats, seat.Number)
		if t.hand == nil {
			t.scheduleAutoDealLocked()
		}
	}
	t.deps.Logger.Info("player left", "table", t.cfg.TableID, "player", playerID, "mid_hand", dealtIn)
	if !settled {
		events = append(events, t.tableUpdatedLocked())
	}
	t.commitLocked(events...)
	return nil
}

// StartHand deals the next hand and returns its id. The button advances to
// the next seat with chips, skipping empty and busted seats.
func (t *Table) StartHand() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startHandLocked()
}

func (t *Table) startHandLocked() (string, error) {
	if t.closed {
		return "", game.Conflictf("table_closed", "table %s is closed", t.cfg.TableID)
	}
	if t.hand != nil {
		return "", game.Conflictf("hand_in_progress", "hand %s is still running", t.hand.ID())
	}
	eligible := t.eligibleLocked()
	if len(eligible) < 2 {
		return "", game.RuleViolationf("not_enough_players", "need 2 players with chips, have %d", len(eligible))
	}

	t.button = t.nextButtonLocked(eligible)
	t.handNo++
	players := make([]*game.Player, len(eligible))
	for i, s := range eligible {
		players[i] = &game.Player{Seat: s.Number, ID: s.PlayerID, Name: s.Name, Stack: s.Stack}
	}
	var opts []game.HandOption
	if t.deps.HandOptions != nil {
		opts = t.deps.HandOptions()
	}
	hand, err := game.NewHand(game.HandConfig{
		TableID:    t.cfg.TableID,
		HandID:     gameid.NewHandID(),
		SmallBlind: t.cfg.SmallBlind,
		BigBlind:   t.cfg.BigBlind,
		Button:     t.button,
	}, players, opts...)
	if err != nil {
		return "", err
	}
	t.hand = hand
	t.status = StatusPlaying
	t.deps.Logger.Info("hand started",
		"table", t.cfg.TableID, "hand", hand.ID(), "no", t.handNo,
		"players", len(players), "button", t.button)

	events := hand.TakeEvents()
	events = append(events, t.postApplyLocked()...)
	t.commitLocked(events...)
	return hand.ID(), nil
}

// Act applies a betting action for the player.
func (t *Table) Act(playerID string, action game.Action, amount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hand == nil {
		return game.RuleViolationf("no_active_hand", "no hand in progress")
	}
	seat := t.seatByPlayerLocked(playerID)
	if seat == nil {
		return game.NotFoundf("not_seated", "player %s is not seated", playerID)
	}
	if err := t.hand.Apply(seat.Number, action, amount); err != nil {
		return err
	}
	events := t.hand.TakeEvents()
	events = append(events, t.postApplyLocked()...)
	t.commitLocked(events...)
	return nil
}

// Close stops the table's timers. State already saved stays loadable.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopTurnTimerLocked()
	if t.dealTimer != nil {
		t.dealTimer.Stop()
		t.dealTimer = nil
	}
}

// Announce publishes the current table state, used after creation and
// restore so subscribers see the table exists.
func (t *Table) Announce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deps.Publisher.Publish(t.tableUpdatedLocked())
}

// postApplyLocked runs the shared follow-up after any engine mutation:
// folding departed players as their turn arrives, settling a finished hand
// and keeping the turn clock armed.
func (t *Table) postApplyLocked() []game.Event {
	var events []game.Event
	for t.hand != nil && !t.hand.Complete() {
		seat, ok := t.hand.ActingSeat()
		if !ok {
			break
		}
		p, ok := t.hand.PlayerBySeat(seat)
		if !ok || !t.departed[p.ID] {
			break
		}
		if err := t.hand.ForceFold(seat); err != nil {
			t.deps.Logger.Error("folding departed player", "table", t.cfg.TableID, "seat", seat, "err", err)
			break
		}
		events = append(events, t.hand.TakeEvents()...)
	}
	if t.hand != nil && t.hand.Complete() {
		events = append(events, t.settleLocked()...)
		return events
	}
	t.armTurnTimerLocked()
	return events
}

// settleLocked copies stacks back to the seats, clears departed players and
// returns the closing table update.
func (t *Table) settleLocked() []game.Event {
	t.stopTurnTimerLocked()
	for _, p := range t.hand.Players() {
		if s, ok := t.seats[p.Seat]; ok && s.PlayerID == p.ID {
			s.Stack = p.Stack
		}
	}
	t.deps.Logger.Info("hand ended", "table", t.cfg.TableID, "hand", t.hand.ID())
	t.hand = nil
	t.status = StatusWaitingPlayers
	for id := range t.departed {
		if s := t.seatByPlayerLocked(id); s != nil {
			delete(t.seats, s.Number)
		}
		delete(t.departed, id)
	}
	t.scheduleAutoDealLocked()
	return []game.Event{t.tableUpdatedLocked()}
}

// commitLocked saves a snapshot, then publishes the events. Both happen
// under the table lock so snapshot state never runs ahead of the events
// subscribers see.
func (t *Table) commitLocked(events ...game.Event) {
	if t.deps.Save != nil {
		if err := t.deps.Save(t.snapshotLocked()); err != nil {
			t.deps.Logger.Error("saving table snapshot", "table", t.cfg.TableID, "err", err)
		}
	}
	if len(events) > 0 {
		t.deps.Publisher.Publish(events...)
	}
}

func (t *Table) seatByPlayerLocked(playerID string) *Seat {
	for _, s := range t.seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

// eligibleLocked lists seats that can be dealt in, in seat order.
func (t *Table) eligibleLocked() []*Seat {
	var out []*Seat
	for _, s := range t.seats {
		if s.Stack > 0 && !t.departed[s.PlayerID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (t *Table) nextButtonLocked(eligible []*Seat) int {
	if t.button < 0 {
		return eligible[0].Number
	}
	for offset := 1; offset <= t.cfg.MaxSeats; offset++ {
		n := (t.button + offset) % t.cfg.MaxSeats
		for _, s := range eligible {
			if s.Number == n {
				return n
			}
		}
	}
	return eligible[0].Number
}

func (t *Table) scheduleAutoDealLocked() {
	if !t.cfg.AutoDeal || t.closed {
		return
	}
	if t.dealTimer != nil {
		t.dealTimer.Stop()
		t.dealTimer = nil
	}
	if len(t.eligibleLocked()) < 2 {
		return
	}
	t.dealTimer = t.deps.Clock.AfterFunc(t.cfg.DealDelay, func() {
		if _, err := t.StartHand(); err != nil && !game.IsConflict(err) {
			t.deps.Logger.Debug("auto deal skipped", "table", t.cfg.TableID, "err", err)
		}
	})
}

func (t *Table) tableUpdatedLocked() game.Event {
	numbers := make([]int, 0, len(t.seats))
	for n := range t.seats {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	seats := make([]game.SeatState, 0, len(numbers))
	for _, n := range numbers {
		s := t.seats[n]
		st := game.SeatState{Seat: s.Number, PlayerID: s.PlayerID, Name: s.Name, Stack: s.Stack}
		if t.hand != nil {
			if p, ok := t.hand.PlayerBySeat(n); ok && p.ID == s.PlayerID {
				st.Stack, st.Bet, st.Folded, st.AllIn = p.Stack, p.Bet, p.Folded, p.AllIn
			}
		}
		seats = append(seats, st)
	}
	handID := ""
	if t.hand != nil {
		handID = t.hand.ID()
	}
	return game.TableUpdated{
		Meta:       game.NewMeta(t.cfg.TableID, handID),
		Name:       t.cfg.Name,
		Status:     t.status.String(),
		Button:     t.button,
		Seats:      seats,
		HandInPlay: t.hand != nil,
	}
}
