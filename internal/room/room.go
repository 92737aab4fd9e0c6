// Package room is the command surface over the table registry: it creates
// and looks up tables, routes player commands to them, persists snapshots
// after every applied command and fans events out to subscribers.
package room

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/gameid"
	"github.com/feltcraft/cardroom/internal/store"
	"github.com/feltcraft/cardroom/internal/table"
)

// storeTimeout bounds the synchronous snapshot write a table performs
// while holding its lock. Only that table stalls on a slow store.
const storeTimeout = 5 * time.Second

// TableDefaults are room-wide settings applied to every created table.
type TableDefaults struct {
	TurnTimeout time.Duration
	AutoDeal    bool
	DealDelay   time.Duration
}

// Deps are the room's collaborators. Store may be nil for a purely
// in-memory room; Bus defaults to a fresh bus.
type Deps struct {
	Clock    quartz.Clock
	Logger   *log.Logger
	Store    store.Store
	Bus      *Bus
	Defaults TableDefaults
	// HandOptions is passed through to every table, letting tests rig decks.
	HandOptions func() []game.HandOption
}

// Room holds the table registry. The registry lock covers only lookup and
// registration; commands serialize on the target table's own mutex, so
// distinct tables never contend.
type Room struct {
	deps Deps

	mu     sync.RWMutex
	tables map[string]*table.Table
}

// New builds an empty room.
func New(deps Deps) *Room {
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Bus == nil {
		deps.Bus = NewBus()
	}
	return &Room{
		deps:   deps,
		tables: make(map[string]*table.Table),
	}
}

// Bus exposes the event bus for transport subscriptions.
func (r *Room) Bus() *Bus { return r.deps.Bus }

// CreateTableParams name the per-table settings; zero values fall back to
// table.Config defaults.
type CreateTableParams struct {
	Name       string `json:"name"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	MaxSeats   int    `json:"max_seats"`
	MinBuyIn   int    `json:"min_buy_in"`
	MaxBuyIn   int    `json:"max_buy_in"`
}

// CreateTable registers a new table and announces it.
func (r *Room) CreateTable(p CreateTableParams) (table.Info, error) {
	cfg := table.Config{
		TableID:     gameid.NewTableID(),
		Name:        p.Name,
		MaxSeats:    p.MaxSeats,
		SmallBlind:  p.SmallBlind,
		BigBlind:    p.BigBlind,
		MinBuyIn:    p.MinBuyIn,
		MaxBuyIn:    p.MaxBuyIn,
		TurnTimeout: r.deps.Defaults.TurnTimeout,
		AutoDeal:    r.deps.Defaults.AutoDeal,
		DealDelay:   r.deps.Defaults.DealDelay,
	}
	tbl, err := table.New(cfg, r.tableDeps())
	if err != nil {
		return table.Info{}, err
	}
	r.mu.Lock()
	r.tables[cfg.TableID] = tbl
	r.mu.Unlock()

	r.deps.Logger.Info("table created", "table", cfg.TableID, "name", cfg.Name,
		"blinds", fmt.Sprintf("%d/%d", cfg.SmallBlind, cfg.BigBlind))
	tbl.Announce()
	return tbl.Info(), nil
}

func (r *Room) tableDeps() table.Deps {
	deps := table.Deps{
		Clock:       r.deps.Clock,
		Logger:      r.deps.Logger,
		Publisher:   r.deps.Bus,
		HandOptions: r.deps.HandOptions,
	}
	if r.deps.Store != nil {
		deps.Save = func(snap *table.Snapshot) error {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			return r.deps.Store.Save(ctx, snap)
		}
	}
	return deps
}

// Table looks up a table by id.
func (r *Room) Table(tableID string) (*table.Table, error) {
	r.mu.RLock()
	tbl, ok := r.tables[tableID]
	r.mu.RUnlock()
	if !ok {
		return nil, game.NotFoundf("table_not_found", "no table %s", tableID)
	}
	return tbl, nil
}

// TableByName finds a table by display name. Names are not unique; the
// first match in id order wins. Used for boot-time provisioning.
func (r *Room) TableByName(name string) (*table.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if r.tables[id].Info().Name == name {
			return r.tables[id], true
		}
	}
	return nil, false
}

// ListTables summarizes all tables in id order.
func (r *Room) ListTables() []table.Info {
	r.mu.RLock()
	tables := make([]*table.Table, 0, len(r.tables))
	for _, tbl := range r.tables {
		tables = append(tables, tbl)
	}
	r.mu.RUnlock()

	out := make([]table.Info, len(tables))
	for i, tbl := range tables {
		out[i] = tbl.Info()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

// JoinTable seats a player and returns the seat number.
func (r *Room) JoinTable(tableID, playerID, name string, seat, buyIn int) (int, error) {
	tbl, err := r.Table(tableID)
	if err != nil {
		return -1, err
	}
	return tbl.Join(playerID, name, seat, buyIn)
}

// LeaveTable releases a player's seat, folding them out of a live hand
// through the standard path first.
func (r *Room) LeaveTable(tableID, playerID string) error {
	tbl, err := r.Table(tableID)
	if err != nil {
		return err
	}
	return tbl.Leave(playerID)
}

// StartHand deals the next hand and returns its id.
func (r *Room) StartHand(tableID string) (string, error) {
	tbl, err := r.Table(tableID)
	if err != nil {
		return "", err
	}
	return tbl.StartHand()
}

// Act applies a betting action and returns the actor's refreshed view.
func (r *Room) Act(tableID, playerID string, action game.Action, amount int) (table.View, error) {
	tbl, err := r.Table(tableID)
	if err != nil {
		return table.View{}, err
	}
	if err := tbl.Act(playerID, action, amount); err != nil {
		if game.IsValidation(err) || game.IsRuleViolation(err) {
			r.deps.Logger.Debug("action refused", "table", tableID, "player", playerID, "err", err)
		}
		return table.View{}, err
	}
	return tbl.View(playerID), nil
}

// View projects a table for one player.
func (r *Room) View(tableID, playerID string) (table.View, error) {
	tbl, err := r.Table(tableID)
	if err != nil {
		return table.View{}, err
	}
	return tbl.View(playerID), nil
}

// RestoreAll loads every persisted table and registers it, in parallel.
// Nothing is registered if any snapshot fails to restore.
func (r *Room) RestoreAll(ctx context.Context) (int, error) {
	if r.deps.Store == nil {
		return 0, nil
	}
	snaps, err := r.deps.Store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshots: %w", err)
	}
	var (
		mu       sync.Mutex
		restored []*table.Table
	)
	g, _ := errgroup.WithContext(ctx)
	for _, snap := range snaps {
		g.Go(func() error {
			tbl, err := table.Restore(snap, r.tableDeps())
			if err != nil {
				return fmt.Errorf("restoring table %s: %w", snap.Config.TableID, err)
			}
			mu.Lock()
			restored = append(restored, tbl)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, tbl := range restored {
			tbl.Close()
		}
		return 0, err
	}

	r.mu.Lock()
	for _, tbl := range restored {
		r.tables[tbl.ID()] = tbl
	}
	r.mu.Unlock()
	for _, tbl := range restored {
		r.deps.Logger.Info("table restored", "table", tbl.ID(), "name", tbl.Info().Name)
		tbl.Announce()
	}
	return len(restored), nil
}

// Close stops every table's timers. Snapshots already saved stay loadable.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tbl := range r.tables {
		tbl.Close()
	}
}
