// Package evaluator ranks poker hands. Evaluation is a pure function
// over 5-7 cards: the same card set always produces the same rank, in
// any input order, with no shared state, so hands can be compared
// concurrently across tables.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/feltcraft/cardroom/internal/deck"
)

// Category enumerates hand categories from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank is a totally ordered hand strength. Larger is stronger.
//
// Layout: the category occupies bits 20-23 and five tie-break ranks
// occupy four bits each below, most significant first. Tie-break ranks
// run 0 (deuce) through 12 (ace); unused slots are zero. Two hands of
// the same category therefore compare on exactly the card ranks that
// distinguish them (pair rank before kickers, and so on).
type HandRank uint32

// Category extracts the hand category.
func (hr HandRank) Category() Category {
	return Category(hr >> 20)
}

// String returns the category name of the rank.
func (hr HandRank) String() string {
	return hr.Category().String()
}

// Beats reports whether hr is strictly stronger than other.
func (hr HandRank) Beats(other HandRank) bool {
	return hr > other
}

func rankValue(cat Category, tiebreaks ...uint8) HandRank {
	v := HandRank(cat) << 20
	shift := 16
	for _, tb := range tiebreaks {
		v |= HandRank(tb) << shift
		shift -= 4
	}
	return v
}

// Evaluate returns the rank of the best five-card hand contained in
// the given 5-7 cards. Duplicate cards and out-of-range counts are
// rejected.
func Evaluate(cards ...deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluator: need 5-7 cards, got %d", len(cards))
	}

	var suitMasks [4]uint16
	for _, c := range cards {
		bit := uint16(1) << (c.Rank - deck.Two)
		if suitMasks[c.Suit]&bit != 0 {
			return 0, fmt.Errorf("evaluator: duplicate card %v", c)
		}
		suitMasks[c.Suit] |= bit
	}

	return evaluateMasks(suitMasks), nil
}

// MustEvaluate evaluates and panics on invalid input. Intended for
// call sites that have already validated their cards.
func MustEvaluate(cards ...deck.Card) HandRank {
	hr, err := Evaluate(cards...)
	if err != nil {
		panic(err)
	}
	return hr
}

// evaluateMasks ranks the best five-card hand from per-suit rank masks.
// Bit r of a suit mask is set when rank r+2 of that suit is present.
func evaluateMasks(suitMasks [4]uint16) HandRank {
	rankMask := suitMasks[0] | suitMasks[1] | suitMasks[2] | suitMasks[3]

	// With at most seven cards only one suit can hold a flush.
	var flushMask uint16
	for _, sm := range suitMasks {
		if bits.OnesCount16(sm) >= 5 {
			flushMask = sm
			break
		}
	}

	if flushMask != 0 {
		if high := straightHigh(flushMask); high > 0 {
			return rankValue(StraightFlush, high)
		}
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quadsMask != 0 {
		quad := highestRank(quadsMask)
		kicker := highestRank(rankMask &^ (1 << quad))
		return rankValue(FourOfAKind, quad, kicker)
	}

	if tripsMask != 0 {
		trip := highestRank(tripsMask)
		// A second trip's spare cards act as the full house pair.
		pairCandidates := pairsMask | (tripsMask &^ (1 << trip))
		if pairCandidates != 0 {
			return rankValue(FullHouse, trip, highestRank(pairCandidates))
		}
	}

	if flushMask != 0 {
		tb := topRanks(flushMask, 5)
		return rankValue(Flush, tb...)
	}

	if high := straightHigh(rankMask); high > 0 {
		return rankValue(Straight, high)
	}

	if tripsMask != 0 {
		trip := highestRank(tripsMask)
		tb := append([]uint8{trip}, topRanks(rankMask&^(1<<trip), 2)...)
		return rankValue(ThreeOfAKind, tb...)
	}

	if bits.OnesCount16(pairsMask) >= 2 {
		highPair := highestRank(pairsMask)
		lowPair := highestRank(pairsMask &^ (1 << highPair))
		kicker := highestRank(rankMask &^ (1<<highPair | 1<<lowPair))
		return rankValue(TwoPair, highPair, lowPair, kicker)
	}

	if pairsMask != 0 {
		pair := highestRank(pairsMask)
		tb := append([]uint8{pair}, topRanks(rankMask&^(1<<pair), 3)...)
		return rankValue(Pair, tb...)
	}

	return rankValue(HighCard, topRanks(rankMask, 5)...)
}

// straightHigh returns the tie-break rank of the highest straight in
// the mask, or 0 when none exists. The wheel (A-2-3-4-5) reports 3
// (the five), placing it below every other straight.
func straightHigh(mask uint16) uint8 {
	// Bitwise cascade finds five consecutive set bits in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		low := uint8(bits.Len16(seq) - 1)
		return low + 4
	}

	const wheel = 0x100F // A + 2-3-4-5
	if mask&wheel == wheel {
		return 3
	}
	return 0
}

// highestRank returns the highest set rank bit. The mask must be
// non-empty.
func highestRank(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}

// topRanks returns the n highest set ranks in descending order.
func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for len(out) < n && mask != 0 {
		top := highestRank(mask)
		out = append(out, top)
		mask &^= 1 << top
	}
	return out
}
