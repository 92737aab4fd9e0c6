package game

import "sort"

// Pot is one award unit at showdown. The main pot comes first, side pots
// follow in the order their all-in boundaries were crossed. Eligible holds
// the seats that may win the pot: players still in the hand whose total
// contribution reached the pot's boundary.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// PotTotal is the number of chips committed to the hand so far, including
// bets not yet swept from the current round.
func PotTotal(players []*Player) int {
	total := 0
	for _, p := range players {
		total += p.TotalBet
	}
	return total
}

// BuildPots derives the main pot and side pots from total contributions.
// Every distinct all-in contribution level of a player still in the hand
// forms a boundary; each layer collects, from every player, the slice of
// their contribution that falls inside the layer. Folded players' chips
// stay in whichever pots they reached but folded players are never
// eligible.
func BuildPots(players []*Player) []Pot {
	levels := allInLevels(players)

	var pots []Pot
	prev := 0
	emit := func(limit int) {
		amount := 0
		for _, p := range players {
			c := p.TotalBet
			if limit > 0 && c > limit {
				c = limit
			}
			if c > prev {
				amount += c - prev
			}
		}
		if amount == 0 {
			return
		}
		var eligible []int
		for _, p := range players {
			if !p.InHand() {
				continue
			}
			reached := p.TotalBet >= limit
			if limit == 0 {
				reached = p.TotalBet > prev
			}
			if reached {
				eligible = append(eligible, p.Seat)
			}
		}
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
	}

	for _, level := range levels {
		emit(level)
		prev = level
	}
	// Whatever sits above the highest all-in level is contested by the
	// remaining players, or returned to a sole overbettor.
	emit(0)
	return pots
}

// allInLevels returns the distinct total contributions of all-in players
// still in the hand, ascending.
func allInLevels(players []*Player) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, p := range players {
		if p.AllIn && p.InHand() && p.TotalBet > 0 && !seen[p.TotalBet] {
			seen[p.TotalBet] = true
			levels = append(levels, p.TotalBet)
		}
	}
	sort.Ints(levels)
	return levels
}
