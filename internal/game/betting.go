package game

// BettingRound tracks the state of a single street's betting: the amount to
// call, the last full raise size, and which players have made a voluntary
// decision since the last full raise. Blind posts are not decisions, so the
// big blind keeps the option to raise preflop even when everyone just calls.
type BettingRound struct {
	// CurrentBet is the round total each player must match to stay in.
	CurrentBet int `json:"current_bet"`
	// MinRaise is the size of the last full bet or raise. The next raise
	// must bring the round total to at least CurrentBet+MinRaise unless it
	// puts the raiser all-in.
	MinRaise int `json:"min_raise"`
	// LastAggressor is the seat of the last full bet or raise, -1 when the
	// street has seen none.
	LastAggressor int `json:"last_aggressor"`
	// Acted holds the seats that have acted since the last full raise. A
	// short all-in raise deliberately does not clear it: players who already
	// acted may only call or fold, because no full raise reopened the round.
	Acted map[int]bool `json:"acted"`
	// BigBlind sets the minimum opening bet on streets with no action yet.
	BigBlind int `json:"big_blind"`
}

// NewBettingRound starts a fresh street. Preflop callers seed the current
// bet with the big blind; postflop it starts at zero and the big blind only
// sets the minimum opening bet.
func NewBettingRound(bigBlind, currentBet int) *BettingRound {
	return &BettingRound{
		CurrentBet:    currentBet,
		MinRaise:      bigBlind,
		LastAggressor: -1,
		Acted:         make(map[int]bool),
		BigBlind:      bigBlind,
	}
}

// toCall is the amount the player still owes to match the current bet.
func (br *BettingRound) toCall(p *Player) int {
	owed := br.CurrentBet - p.Bet
	if owed < 0 {
		return 0
	}
	return owed
}

// reopened reports whether the player may still bet or raise this round.
// Once a player has acted, only a subsequent full raise restores that right.
func (br *BettingRound) reopened(p *Player) bool { return !br.Acted[p.Seat] }

// markActed records a voluntary decision by the seat.
func (br *BettingRound) markActed(seat int) { br.Acted[seat] = true }

// applyFullRaise registers a bet or raise of at least the minimum size. All
// other seats get to act again.
func (br *BettingRound) applyFullRaise(seat, total int) {
	br.MinRaise = total - br.CurrentBet
	br.CurrentBet = total
	br.LastAggressor = seat
	br.Acted = map[int]bool{seat: true}
}

// applyShortRaise registers an all-in raise below the minimum size. The
// amount to call rises but the round is not reopened and the minimum raise
// for a later full raise is unchanged.
func (br *BettingRound) applyShortRaise(seat, total int) {
	br.CurrentBet = total
	br.Acted[seat] = true
}

// ValidActions lists what the player may legally do right now, with sizing
// bounds. The engine enforces the same constraints in Apply; this exists so
// transports can prompt players with their real options.
func (br *BettingRound) ValidActions(p *Player) []ValidAction {
	if !p.CanAct() {
		return nil
	}
	actions := []ValidAction{{Action: Fold}}
	owed := br.toCall(p)

	if owed == 0 {
		actions = append(actions, ValidAction{Action: Check})
	} else {
		call := owed
		if call > p.Stack {
			call = p.Stack
		}
		actions = append(actions, ValidAction{Action: Call, Min: call, Max: call})
	}

	if !br.reopened(p) {
		return actions
	}
	max := p.roundTotal()
	if br.CurrentBet == 0 {
		open := br.BigBlind
		if open > max {
			open = max
		}
		if max > 0 {
			actions = append(actions, ValidAction{Action: Bet, Min: open, Max: max})
		}
		return actions
	}
	if max > br.CurrentBet {
		min := br.CurrentBet + br.MinRaise
		if min > max {
			min = max
		}
		actions = append(actions, ValidAction{Action: Raise, Min: min, Max: max})
	}
	return actions
}

// Complete reports whether the street's betting is finished: every player
// who can still act has acted since the last full raise and matched the
// current bet, or fewer than two such players remain with nothing left to
// match.
func (br *BettingRound) Complete(players []*Player) bool {
	var active []*Player
	for _, p := range players {
		if p.CanAct() {
			active = append(active, p)
		}
	}
	switch len(active) {
	case 0:
		return true
	case 1:
		// The last player who can act still owes a decision if their bet
		// does not cover the current bet (somebody went all-in over them).
		return active[0].Bet >= br.CurrentBet
	}
	for _, p := range active {
		if !br.Acted[p.Seat] || p.Bet != br.CurrentBet {
			return false
		}
	}
	return true
}
