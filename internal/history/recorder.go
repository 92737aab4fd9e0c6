// Package history records completed hands to disk in the PHH format. The
// recorder consumes table events from the bus, assembles one hand history
// per completed hand and appends it to a sectioned .phhs file per table,
// flushing on an interval or when enough hands have buffered.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/phh"
)

const maxFlushFailures = 3

// Config tunes the recorder.
type Config struct {
	// Dir is where the .phhs files live, one per table.
	Dir string
	// FlushInterval bounds how long a completed hand may sit in memory.
	FlushInterval time.Duration
	// FlushHands triggers an early flush once this many hands buffer.
	FlushHands int
}

// Recorder accumulates hand histories from events and writes them out in
// the background. HandleEvent is safe to call from the bus; it only
// touches memory.
type Recorder struct {
	cfg    Config
	logger *log.Logger

	mu       sync.Mutex
	open     map[string]*openHand          // live hand per table
	buffer   map[string][]*phh.HandHistory // finished hands per table
	sections map[string]int                // last written section per table
	pending  int
	failures int
	disabled bool

	flushMu  sync.Mutex
	flushReq chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
}

// openHand tracks a hand between its start and end events.
type openHand struct {
	hist      *phh.HandHistory
	posBySeat map[int]int
	starting  map[int]int
}

// New starts a recorder writing under cfg.Dir.
func New(cfg Config, logger *log.Logger) (*Recorder, error) {
	if cfg.Dir == "" {
		return nil, errors.New("history: output directory is required")
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.FlushHands <= 0 {
		cfg.FlushHands = 50
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	r := &Recorder{
		cfg:      cfg,
		logger:   logger.WithPrefix("history"),
		open:     make(map[string]*openHand),
		buffer:   make(map[string][]*phh.HandHistory),
		sections: make(map[string]int),
		flushReq: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r, nil
}

// Close stops the background flusher and writes everything left.
func (r *Recorder) Close() error {
	close(r.stop)
	r.wg.Wait()
	return r.Flush()
}

// HandleEvent feeds one table event into the recorder.
func (r *Recorder) HandleEvent(ev game.Event) {
	switch e := ev.(type) {
	case game.HandStarted:
		r.onHandStarted(e)
	case game.PlayerActed:
		r.onPlayerActed(e)
	case game.CardsRevealed:
		r.onCardsRevealed(e)
	case game.HandEnded:
		r.onHandEnded(e)
	}
}

func (r *Recorder) onHandStarted(e game.HandStarted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled || len(e.Seats) == 0 {
		return
	}

	order := positionOrder(e.Button, e.Seats)
	hist := &phh.HandHistory{
		Variant:           phh.VariantHoldem,
		HandID:            e.HandID,
		Table:             e.TableID,
		SeatCount:         len(order),
		Seats:             make([]int, len(order)),
		Antes:             make([]int, len(order)),
		BlindsOrStraddles: make([]int, len(order)),
		MinBet:            e.BigBlind,
		StartingStacks:    make([]int, len(order)),
		Players:           make([]string, len(order)),
		Actions:           make([]string, 0, len(order)+16),
	}
	hist.BlindsOrStraddles[0] = e.SmallBlind
	if len(order) > 1 {
		hist.BlindsOrStraddles[1] = e.BigBlind
	}

	oh := &openHand{
		hist:      hist,
		posBySeat: make(map[int]int, len(order)),
		starting:  make(map[int]int, len(order)),
	}
	for pos, seat := range order {
		hist.Seats[pos] = seat.Seat + 1
		// Stacks in the start event are post-blind; back the blind out so
		// starting stacks reflect the deal.
		hist.StartingStacks[pos] = seat.Stack + seat.Bet
		hist.Players[pos] = seat.Name
		hist.Actions = append(hist.Actions, phh.DealAction(pos, ""))
		oh.posBySeat[seat.Seat] = pos
		oh.starting[seat.Seat] = seat.Stack + seat.Bet
	}
	applyTimestamp(hist, e.At)
	r.open[e.TableID] = oh
}

func (r *Recorder) onPlayerActed(e game.PlayerActed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oh := r.open[e.TableID]
	if r.disabled || oh == nil {
		return
	}
	pos, ok := oh.posBySeat[e.Seat]
	if !ok {
		return
	}
	if line, ok := phh.PlayerAction(pos, e.Action.String(), e.Amount); ok {
		oh.hist.Actions = append(oh.hist.Actions, line)
	}
}

func (r *Recorder) onCardsRevealed(e game.CardsRevealed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oh := r.open[e.TableID]
	if r.disabled || oh == nil || len(e.Cards) == 0 {
		return
	}
	oh.hist.Actions = append(oh.hist.Actions, phh.BoardAction(cardCodes(e.Cards)))
}

func (r *Recorder) onHandEnded(e game.HandEnded) {
	r.mu.Lock()
	oh := r.open[e.TableID]
	if r.disabled || oh == nil {
		r.mu.Unlock()
		return
	}
	delete(r.open, e.TableID)

	hist := oh.hist
	for _, showing := range e.Showings {
		if pos, ok := oh.posBySeat[showing.Seat]; ok {
			hist.Actions = append(hist.Actions, phh.ShowAction(pos, cardCodes(showing.HoleCards)))
		}
	}
	hist.FinishingStacks = make([]int, len(hist.StartingStacks))
	copy(hist.FinishingStacks, hist.StartingStacks)
	hist.Winnings = make([]int, len(hist.StartingStacks))
	for _, seat := range e.Seats {
		pos, ok := oh.posBySeat[seat.Seat]
		if !ok {
			continue
		}
		hist.FinishingStacks[pos] = seat.Stack
		if win := seat.Stack - oh.starting[seat.Seat]; win > 0 {
			hist.Winnings[pos] = win
		}
	}

	r.buffer[e.TableID] = append(r.buffer[e.TableID], hist)
	r.pending++
	wantFlush := r.pending >= r.cfg.FlushHands
	r.mu.Unlock()

	if wantFlush {
		select {
		case r.flushReq <- struct{}{}:
		default:
		}
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flushOnce()
		case <-r.flushReq:
			r.flushOnce()
		case <-r.stop:
			return
		}
	}
}

func (r *Recorder) flushOnce() {
	if err := r.Flush(); err != nil {
		r.logger.Error("hand history flush failed", "error", err)
	}
}

// Flush appends every buffered hand to its table's file. After repeated
// failures the recorder disables itself rather than hoard memory.
func (r *Recorder) Flush() error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	if r.disabled || r.pending == 0 {
		r.mu.Unlock()
		return nil
	}
	batches := r.buffer
	r.buffer = make(map[string][]*phh.HandHistory)
	r.pending = 0
	r.mu.Unlock()

	tables := make([]string, 0, len(batches))
	for tableID := range batches {
		tables = append(tables, tableID)
	}
	sort.Strings(tables)

	var firstErr error
	written := 0
	for _, tableID := range tables {
		if err := r.flushTable(tableID, batches[tableID]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("table %s: %w", tableID, err)
		} else if err == nil {
			written += len(batches[tableID])
		}
	}

	r.mu.Lock()
	if firstErr != nil {
		r.failures++
		if r.failures >= maxFlushFailures {
			r.disabled = true
			r.logger.Error("hand history disabled after repeated flush failures",
				"failures", r.failures)
		}
	} else {
		r.failures = 0
	}
	r.mu.Unlock()

	if written > 0 {
		r.logger.Debug("flushed hand histories", "hands", written)
	}
	return firstErr
}

func (r *Recorder) flushTable(tableID string, hands []*phh.HandHistory) error {
	path := filepath.Join(r.cfg.Dir, tableID+".phhs")

	r.mu.Lock()
	section, known := r.sections[tableID]
	r.mu.Unlock()
	if !known {
		last, err := readLastSection(path)
		if err != nil {
			return err
		}
		section = last
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, hand := range hands {
		section++
		if _, err := fmt.Fprintf(file, "[%d]\n", section); err != nil {
			return err
		}
		if err := phh.Encode(file, hand); err != nil {
			return err
		}
		if _, err := file.WriteString("\n"); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.sections[tableID] = section
	r.mu.Unlock()
	return nil
}

// positionOrder returns the dealt seats rotated small blind first. Heads
// up the button posts the small blind.
func positionOrder(button int, seats []game.SeatState) []game.SeatState {
	order := append([]game.SeatState(nil), seats...)
	sort.Slice(order, func(i, j int) bool { return order[i].Seat < order[j].Seat })

	buttonIdx := 0
	for i, s := range order {
		if s.Seat == button {
			buttonIdx = i
			break
		}
	}
	start := (buttonIdx + 1) % len(order)
	if len(order) == 2 {
		start = buttonIdx
	}

	rotated := make([]game.SeatState, 0, len(order))
	for i := 0; i < len(order); i++ {
		rotated = append(rotated, order[(start+i)%len(order)])
	}
	return rotated
}

func cardCodes(cards []deck.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

func applyTimestamp(hist *phh.HandHistory, at time.Time) {
	if at.IsZero() {
		return
	}
	utc := at.UTC()
	hist.Time = utc.Format("15:04:05")
	hist.TimeZone = "UTC"
	hist.Day = utc.Day()
	hist.Month = int(utc.Month())
	hist.Year = utc.Year()
}

// readLastSection scans an existing file for the highest section header so
// appends continue the numbering.
func readLastSection(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	last := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) >= 3 && line[0] == '[' && line[len(line)-1] == ']' {
			if n, err := strconv.Atoi(line[1 : len(line)-1]); err == nil && n > last {
				last = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return last, nil
}
