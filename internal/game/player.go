package game

import "github.com/feltcraft/cardroom/internal/deck"

// Player is one participant dealt into a hand. The table layer builds these
// from its seats when a hand starts and copies the stacks back when it ends.
type Player struct {
	Seat      int         `json:"seat"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Stack     int         `json:"stack"`
	HoleCards []deck.Card `json:"hole_cards,omitempty"`

	Folded bool `json:"folded,omitempty"`
	AllIn  bool `json:"all_in,omitempty"`

	// Bet is the amount committed in the current betting round, TotalBet the
	// amount committed over the whole hand. TotalBet includes Bet.
	Bet      int `json:"bet"`
	TotalBet int `json:"total_bet"`

	LastAction Action `json:"last_action,omitempty"`
}

// InHand reports whether the player still has a claim on the pot.
func (p *Player) InHand() bool { return !p.Folded }

// CanAct reports whether the player still makes betting decisions.
func (p *Player) CanAct() bool { return !p.Folded && !p.AllIn }

// commit moves chips from the stack into the current bet, flagging the
// player all-in when the stack empties. It never commits more than the
// stack holds and returns the amount actually moved.
func (p *Player) commit(amount int) int {
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
	return amount
}

// roundTotal is the amount the player would have committed this round after
// pushing their entire stack.
func (p *Player) roundTotal() int { return p.Bet + p.Stack }
