package history

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	dir := t.TempDir()
	rec, err := New(Config{Dir: dir, FlushHands: 100}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	return rec, dir
}

func meta(tableID, handID string) game.Meta {
	return game.Meta{
		TableID: tableID,
		HandID:  handID,
		At:      time.Date(2025, time.November, 14, 15, 22, 0, 0, time.UTC),
	}
}

// playHeadsUpHand feeds the recorder the event stream of a small heads-up
// hand: button limps, big blind checks, then folds to a flop bet.
func playHeadsUpHand(rec *Recorder, tableID, handID string) {
	m := meta(tableID, handID)
	rec.HandleEvent(game.HandStarted{
		Meta:       m,
		Button:     0,
		SmallBlind: 5,
		BigBlind:   10,
		Seats: []game.SeatState{
			{Seat: 0, PlayerID: "plr_a", Name: "alice", Stack: 995, Bet: 5},
			{Seat: 1, PlayerID: "plr_b", Name: "bob", Stack: 990, Bet: 10},
		},
		NextToAct: 0,
	})
	rec.HandleEvent(game.PlayerActed{Meta: m, Seat: 0, Action: game.Call, Amount: 5, Pot: 20, NextToAct: 1})
	rec.HandleEvent(game.PlayerActed{Meta: m, Seat: 1, Action: game.Check, Pot: 20, NextToAct: -1})
	rec.HandleEvent(game.CardsRevealed{
		Meta:      m,
		Phase:     game.PhaseFlop,
		Cards:     deck.MustParseCards("Ah7c2d"),
		Board:     deck.MustParseCards("Ah7c2d"),
		Pot:       20,
		NextToAct: 1,
	})
	rec.HandleEvent(game.PlayerActed{Meta: m, Seat: 1, Action: game.Bet, Amount: 20, Pot: 40, NextToAct: 0})
	rec.HandleEvent(game.PlayerActed{Meta: m, Seat: 0, Action: game.Fold, Pot: 40, NextToAct: -1})
	rec.HandleEvent(game.HandEnded{
		Meta:     m,
		Showdown: false,
		Seats: []game.SeatState{
			{Seat: 0, PlayerID: "plr_a", Name: "alice", Stack: 990},
			{Seat: 1, PlayerID: "plr_b", Name: "bob", Stack: 1010},
		},
		Summary: "bob wins 40 uncontested",
	})
}

func readHistory(t *testing.T, dir, tableID string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, tableID+".phhs"))
	require.NoError(t, err)
	return string(raw)
}

func TestRecorderWritesCompletedHand(t *testing.T) {
	rec, dir := testRecorder(t)
	playHeadsUpHand(rec, "tbl_x", "hnd_1")
	require.NoError(t, rec.Flush())

	content := readHistory(t, dir, "tbl_x")
	assert.Contains(t, content, "[1]")
	assert.Contains(t, content, `hand = "hnd_1"`)
	assert.Contains(t, content, `players = ["alice", "bob"]`)

	// Heads up the button posts the small blind and sits first.
	assert.Contains(t, content, "seats = [1, 2]")
	assert.Contains(t, content, "blinds_or_straddles = [5, 10]")
	assert.Contains(t, content, "starting_stacks = [1000, 1000]")
	assert.Contains(t, content, "finishing_stacks = [990, 1010]")
	assert.Contains(t, content, "winnings = [0, 10]")

	// Hole cards are never public in the event stream.
	assert.Contains(t, content, `"d dh p1 ????"`)
	assert.Contains(t, content, `"d dh p2 ????"`)
	assert.Contains(t, content, `"p1 cc"`)
	assert.Contains(t, content, `"d db Ah7c2d"`)
	assert.Contains(t, content, `"p2 cbr 20"`)
	assert.Contains(t, content, `"p1 f"`)

	assert.Contains(t, content, `time = "15:22:00"`)
	assert.Contains(t, content, "year = 2025")
}

func TestRecorderAppendsSections(t *testing.T) {
	rec, dir := testRecorder(t)

	playHeadsUpHand(rec, "tbl_x", "hnd_1")
	require.NoError(t, rec.Flush())
	playHeadsUpHand(rec, "tbl_x", "hnd_2")
	require.NoError(t, rec.Flush())

	content := readHistory(t, dir, "tbl_x")
	assert.Contains(t, content, "[1]")
	assert.Contains(t, content, "[2]")
	assert.Contains(t, content, `hand = "hnd_2"`)
}

func TestRecorderResumesSectionNumbering(t *testing.T) {
	dir := t.TempDir()
	existing := "[7]\nvariant = \"NT\"\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tbl_x.phhs"), []byte(existing), 0o644))

	rec, err := New(Config{Dir: dir}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	playHeadsUpHand(rec, "tbl_x", "hnd_8")
	require.NoError(t, rec.Flush())

	content := readHistory(t, dir, "tbl_x")
	assert.Contains(t, content, "[7]")
	assert.Contains(t, content, "[8]")
	assert.NotContains(t, content, "[1]\nvariant")
}

func TestRecorderRecordsShowdown(t *testing.T) {
	rec, dir := testRecorder(t)
	m := meta("tbl_s", "hnd_s")

	rec.HandleEvent(game.HandStarted{
		Meta:       m,
		Button:     1,
		SmallBlind: 5,
		BigBlind:   10,
		Seats: []game.SeatState{
			{Seat: 0, PlayerID: "plr_a", Name: "alice", Stack: 990, Bet: 10},
			{Seat: 1, PlayerID: "plr_b", Name: "bob", Stack: 1000},
			{Seat: 2, PlayerID: "plr_c", Name: "carol", Stack: 995, Bet: 5},
		},
		NextToAct: 1,
	})
	rec.HandleEvent(game.HandEnded{
		Meta:     m,
		Showdown: true,
		Showings: []game.Showing{
			{Seat: 0, PlayerID: "plr_a", HoleCards: deck.MustParseCards("AsAh"), HandName: "Pair"},
			{Seat: 2, PlayerID: "plr_c", HoleCards: deck.MustParseCards("KsKd"), HandName: "Pair"},
		},
		Seats: []game.SeatState{
			{Seat: 0, PlayerID: "plr_a", Name: "alice", Stack: 1020},
			{Seat: 1, PlayerID: "plr_b", Name: "bob", Stack: 1000},
			{Seat: 2, PlayerID: "plr_c", Name: "carol", Stack: 980},
		},
		Summary: "alice wins 40 with Pair",
	})
	require.NoError(t, rec.Flush())

	content := readHistory(t, dir, "tbl_s")

	// Button seat 1: carol (seat 2) posts the small blind and sits first.
	assert.Contains(t, content, "seats = [3, 1, 2]")
	assert.Contains(t, content, `players = ["carol", "alice", "bob"]`)
	assert.Contains(t, content, "blinds_or_straddles = [5, 10, 0]")

	// Reveals map to position indexes, not seat numbers.
	assert.Contains(t, content, `"p2 sm AsAh"`)
	assert.Contains(t, content, `"p1 sm KsKd"`)
	assert.Contains(t, content, "winnings = [0, 20, 0]")
}

func TestRecorderIgnoresUnknownHands(t *testing.T) {
	rec, dir := testRecorder(t)

	// Events for a hand whose start was never seen must not crash or write.
	m := meta("tbl_x", "hnd_orphan")
	rec.HandleEvent(game.PlayerActed{Meta: m, Seat: 0, Action: game.Fold})
	rec.HandleEvent(game.HandEnded{Meta: m})
	require.NoError(t, rec.Flush())

	_, err := os.Stat(filepath.Join(dir, "tbl_x.phhs"))
	assert.True(t, os.IsNotExist(err))
}

func TestRecorderRequiresDir(t *testing.T) {
	_, err := New(Config{}, testLogger())
	require.Error(t, err)
}
