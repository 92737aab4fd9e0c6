package table

import (
	"sort"
	"time"

	"github.com/feltcraft/cardroom/internal/game"
)

// Snapshot is the table's full durable state. It marshals to JSON for
// storage and restores to an equivalent table.
type Snapshot struct {
	Config   Config             `json:"config"`
	Button   int                `json:"button"`
	HandNo   uint64             `json:"hand_no"`
	Seats    []*Seat            `json:"seats"`
	Departed []string           `json:"departed,omitempty"`
	Hand     *game.HandSnapshot `json:"hand,omitempty"`
	SavedAt  time.Time          `json:"saved_at"`
}

// Snapshot captures the current state.
func (t *Table) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() *Snapshot {
	s := &Snapshot{
		Config:  t.cfg,
		Button:  t.button,
		HandNo:  t.handNo,
		SavedAt: time.Now().UTC(),
	}
	numbers := make([]int, 0, len(t.seats))
	for n := range t.seats {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		seat := *t.seats[n]
		s.Seats = append(s.Seats, &seat)
	}
	for id := range t.departed {
		s.Departed = append(s.Departed, id)
	}
	sort.Strings(s.Departed)
	if t.hand != nil {
		s.Hand = t.hand.Snapshot()
	}
	return s
}

// Restore rebuilds a table from a snapshot. A hand that was mid-turn gets
// a fresh turn clock rather than the remainder of the old one.
func Restore(s *Snapshot, deps Deps) (*Table, error) {
	if s == nil {
		return nil, game.Validationf("nil_snapshot", "no table snapshot")
	}
	t, err := New(s.Config, deps)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.button = s.Button
	t.handNo = s.HandNo
	for _, seat := range s.Seats {
		if seat == nil {
			continue
		}
		if seat.Number < 0 || seat.Number >= t.cfg.MaxSeats {
			return nil, game.Validationf("bad_seat", "snapshot seat %d outside 0..%d", seat.Number, t.cfg.MaxSeats-1)
		}
		if _, taken := t.seats[seat.Number]; taken {
			return nil, game.Validationf("duplicate_seat", "snapshot repeats seat %d", seat.Number)
		}
		copied := *seat
		t.seats[seat.Number] = &copied
	}
	for _, id := range s.Departed {
		t.departed[id] = true
	}
	if s.Hand != nil {
		hand, err := game.RestoreHand(s.Hand)
		if err != nil {
			return nil, err
		}
		t.hand = hand
		t.status = StatusPlaying
		if hand.Complete() {
			// Saved between completion and settle; finish the bookkeeping.
			t.deps.Publisher.Publish(t.settleLocked()...)
		} else {
			t.armTurnTimerLocked()
		}
	} else {
		t.scheduleAutoDealLocked()
	}
	return t, nil
}
