package table

import (
	"sort"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/game"
)

// SeatView is one seat as a specific viewer sees it. HoleCards are set
// only on the viewer's own seat while the hand runs.
type SeatView struct {
	Number     int         `json:"number"`
	PlayerID   string      `json:"player_id"`
	Name       string      `json:"name"`
	Stack      int         `json:"stack"`
	Bet        int         `json:"bet,omitempty"`
	TotalBet   int         `json:"total_bet,omitempty"`
	Folded     bool        `json:"folded,omitempty"`
	AllIn      bool        `json:"all_in,omitempty"`
	Acting     bool        `json:"acting,omitempty"`
	LastAction string      `json:"last_action,omitempty"`
	HoleCards  []deck.Card `json:"hole_cards,omitempty"`
}

// View is a table snapshot projected for one viewer. ValidActions is set
// only when it is the viewer's turn.
type View struct {
	TableID      string             `json:"table_id"`
	Name         string             `json:"name"`
	Status       string             `json:"status"`
	MaxSeats     int                `json:"max_seats"`
	SmallBlind   int                `json:"small_blind"`
	BigBlind     int                `json:"big_blind"`
	Button       int                `json:"button"`
	HandID       string             `json:"hand_id,omitempty"`
	Phase        string             `json:"phase,omitempty"`
	Board        []deck.Card        `json:"board,omitempty"`
	Pot          int                `json:"pot"`
	CurrentBet   int                `json:"current_bet"`
	MinRaise     int                `json:"min_raise,omitempty"`
	Seats        []SeatView         `json:"seats"`
	YourSeat     int                `json:"your_seat"`
	ToAct        int                `json:"to_act"`
	ValidActions []game.ValidAction `json:"valid_actions,omitempty"`
	TurnTimeout  int                `json:"turn_timeout_seconds,omitempty"`
}

// View projects the table for the given player. An unknown or empty
// player id yields a spectator view with no hole cards.
func (t *Table) View(playerID string) View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{
		TableID:     t.cfg.TableID,
		Name:        t.cfg.Name,
		Status:      t.status.String(),
		MaxSeats:    t.cfg.MaxSeats,
		SmallBlind:  t.cfg.SmallBlind,
		BigBlind:    t.cfg.BigBlind,
		Button:      t.button,
		YourSeat:    -1,
		ToAct:       -1,
		TurnTimeout: int(t.cfg.TurnTimeout.Seconds()),
	}
	if own := t.seatByPlayerLocked(playerID); own != nil {
		v.YourSeat = own.Number
	}

	numbers := make([]int, 0, len(t.seats))
	for n := range t.seats {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	acting := -1
	if t.hand != nil {
		v.HandID = t.hand.ID()
		v.Phase = t.hand.Phase().String()
		v.Board = t.hand.Board()
		v.Pot = t.hand.PotTotal()
		v.CurrentBet = t.hand.CurrentBet()
		v.MinRaise = t.hand.MinRaise()
		if seat, ok := t.hand.ActingSeat(); ok {
			acting = seat
		}
		v.ToAct = acting
	}

	for _, n := range numbers {
		s := t.seats[n]
		sv := SeatView{
			Number:   s.Number,
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Stack:    s.Stack,
		}
		if t.hand != nil {
			if p, ok := t.hand.PlayerBySeat(n); ok && p.ID == s.PlayerID {
				sv.Stack = p.Stack
				sv.Bet = p.Bet
				sv.TotalBet = p.TotalBet
				sv.Folded = p.Folded
				sv.AllIn = p.AllIn
				sv.Acting = n == acting
				if p.LastAction != 0 {
					sv.LastAction = p.LastAction.String()
				}
				if n == v.YourSeat {
					sv.HoleCards = append([]deck.Card(nil), p.HoleCards...)
				}
			}
		}
		v.Seats = append(v.Seats, sv)
	}

	if t.hand != nil && v.YourSeat >= 0 && v.YourSeat == acting {
		if actions, err := t.hand.ValidActions(v.YourSeat); err == nil {
			v.ValidActions = actions
		}
	}
	return v
}
