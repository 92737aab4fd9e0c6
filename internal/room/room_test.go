package room

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/store"
)

type eventLog struct {
	mu     sync.Mutex
	events []game.Event
}

func (l *eventLog) add(ev game.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) take() []game.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

func testRoom(t *testing.T, mutate func(*Deps)) (*Room, *eventLog) {
	t.Helper()
	deps := Deps{
		Clock:  quartz.NewMock(t),
		Logger: log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}),
	}
	if mutate != nil {
		mutate(&deps)
	}
	r := New(deps)
	t.Cleanup(r.Close)

	lg := &eventLog{}
	cancel := r.Bus().Subscribe(lg.add)
	t.Cleanup(cancel)
	return r, lg
}

func mainTable(t *testing.T, r *Room) string {
	t.Helper()
	info, err := r.CreateTable(CreateTableParams{
		Name:       "main",
		SmallBlind: 5,
		BigBlind:   10,
		MinBuyIn:   100,
		MaxBuyIn:   2000,
	})
	require.NoError(t, err)
	return info.TableID
}

func TestCreateAndListTables(t *testing.T) {
	r, lg := testRoom(t, nil)

	a, err := r.CreateTable(CreateTableParams{Name: "low", SmallBlind: 1, BigBlind: 2})
	require.NoError(t, err)
	b, err := r.CreateTable(CreateTableParams{Name: "high", SmallBlind: 50, BigBlind: 100})
	require.NoError(t, err)
	assert.NotEqual(t, a.TableID, b.TableID)

	infos := r.ListTables()
	require.Len(t, infos, 2)
	assert.True(t, infos[0].TableID < infos[1].TableID)

	// Creation fills table defaults and announces.
	assert.Equal(t, 9, a.MaxSeats)
	updates := 0
	for _, ev := range lg.take() {
		if ev.Type() == game.EventTableUpdated {
			updates++
		}
	}
	assert.Equal(t, 2, updates)

	found, ok := r.TableByName("high")
	require.True(t, ok)
	assert.Equal(t, b.TableID, found.ID())
	_, ok = r.TableByName("ghost")
	assert.False(t, ok)

	_, err = r.CreateTable(CreateTableParams{Name: "bad", SmallBlind: 10, BigBlind: 5})
	require.Error(t, err)
	assert.True(t, game.IsValidation(err))
	assert.Len(t, r.ListTables(), 2)
}

func TestCommandsRouteToTable(t *testing.T) {
	r, _ := testRoom(t, nil)
	id := mainTable(t, r)

	seat, err := r.JoinTable(id, "p0", "Ada", -1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, seat)
	seat, err = r.JoinTable(id, "p1", "Bix", -1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, seat)

	handID, err := r.StartHand(id)
	require.NoError(t, err)
	assert.NotEmpty(t, handID)

	// Heads-up the button opens; the returned view is the actor's own.
	view, err := r.Act(id, "p0", game.Call, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, view.Pot)
	assert.Equal(t, 1, view.ToAct)
	assert.Empty(t, view.ValidActions)

	view, err = r.View(id, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, view.ValidActions)

	require.NoError(t, r.LeaveTable(id, "p1"))
	view, err = r.View(id, "")
	require.NoError(t, err)
	assert.Equal(t, "waiting_players", view.Status)
}

func TestTablesProgressIndependently(t *testing.T) {
	r, _ := testRoom(t, nil)

	ids := make([]string, 2)
	for i, name := range []string{"low", "high"} {
		info, err := r.CreateTable(CreateTableParams{
			Name:       name,
			SmallBlind: 5,
			BigBlind:   10,
			MinBuyIn:   100,
			MaxBuyIn:   2000,
		})
		require.NoError(t, err)
		ids[i] = info.TableID
	}

	// Heads-up the button opens, then the big blind leads every street.
	playHand := func(id, a, b string) error {
		if _, err := r.JoinTable(id, a, "", -1, 1000); err != nil {
			return err
		}
		if _, err := r.JoinTable(id, b, "", -1, 1000); err != nil {
			return err
		}
		if _, err := r.StartHand(id); err != nil {
			return err
		}
		if _, err := r.Act(id, a, game.Call, 0); err != nil {
			return err
		}
		if _, err := r.Act(id, b, game.Check, 0); err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if _, err := r.Act(id, b, game.Check, 0); err != nil {
				return err
			}
			if _, err := r.Act(id, a, game.Check, 0); err != nil {
				return err
			}
		}
		return nil
	}

	// One goroutine per table plays a full hand while a third hammers the
	// lobby; neither table blocks the other.
	errs := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); errs <- playHand(ids[0], "p0", "p1") }()
	go func() { defer wg.Done(); errs <- playHand(ids[1], "q0", "q1") }()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.ListTables()
		}
		errs <- nil
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	for _, id := range ids {
		view, err := r.View(id, "")
		require.NoError(t, err)
		assert.Equal(t, "waiting_players", view.Status)
		total := 0
		for _, s := range view.Seats {
			total += s.Stack
		}
		assert.Equal(t, 2000, total)
	}
}

func TestCommandsOnUnknownTable(t *testing.T) {
	r, _ := testRoom(t, nil)

	_, err := r.JoinTable("tbl_missing", "p0", "", -1, 1000)
	assert.True(t, game.IsNotFound(err))
	err = r.LeaveTable("tbl_missing", "p0")
	assert.True(t, game.IsNotFound(err))
	_, err = r.StartHand("tbl_missing")
	assert.True(t, game.IsNotFound(err))
	_, err = r.Act("tbl_missing", "p0", game.Fold, 0)
	assert.True(t, game.IsNotFound(err))
	_, err = r.View("tbl_missing", "p0")
	assert.True(t, game.IsNotFound(err))
	_, err = r.Table("tbl_missing")
	assert.Equal(t, "table_not_found", game.CodeOf(err))
}

func TestRoomPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	r, _ := testRoom(t, func(d *Deps) { d.Store = st })
	id := mainTable(t, r)

	_, err := r.JoinTable(id, "p0", "Ada", -1, 1000)
	require.NoError(t, err)
	_, err = r.JoinTable(id, "p1", "Bix", -1, 1000)
	require.NoError(t, err)
	_, err = r.StartHand(id)
	require.NoError(t, err)
	_, err = r.Act(id, "p0", game.Call, 0)
	require.NoError(t, err)

	snaps, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	// A second room over the same store resumes the hand mid-turn.
	r2, _ := testRoom(t, func(d *Deps) { d.Store = st })
	n, err := r2.RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	before, err := r.View(id, "p0")
	require.NoError(t, err)
	after, err := r2.View(id, "p0")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The restored table accepts play where the original left off.
	view, err := r2.Act(id, "p1", game.Check, 0)
	require.NoError(t, err)
	assert.Equal(t, "flop", view.Phase)
	assert.Len(t, view.Board, 3)
}

func TestRestoreAllWithoutStore(t *testing.T) {
	r, _ := testRoom(t, nil)
	n, err := r.RestoreAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventsReachSubscribers(t *testing.T) {
	r, lg := testRoom(t, nil)
	id := mainTable(t, r)
	_, err := r.JoinTable(id, "p0", "Ada", -1, 1000)
	require.NoError(t, err)
	_, err = r.JoinTable(id, "p1", "Bix", -1, 1000)
	require.NoError(t, err)
	lg.take()

	_, err = r.StartHand(id)
	require.NoError(t, err)

	events := lg.take()
	require.NotEmpty(t, events)
	assert.Equal(t, game.EventHandStarted, events[0].Type())
	started := events[0].(game.HandStarted)
	assert.Equal(t, id, started.TableID)
	assert.NotEmpty(t, started.HandID)
}
