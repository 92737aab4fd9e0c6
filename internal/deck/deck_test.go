package deck

import "testing"

func TestNewDeckHas52DistinctCards(t *testing.T) {
	t.Parallel()

	d := New()
	if d.Remaining() != Size {
		t.Fatalf("Remaining() = %d, want %d", d.Remaining(), Size)
	}

	seen := make(map[Card]bool, Size)
	for _, c := range d.Cards() {
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if len(seen) != Size {
		t.Errorf("distinct cards = %d, want %d", len(seen), Size)
	}
}

func TestDealConsumesWithoutReuse(t *testing.T) {
	t.Parallel()

	d := NewShuffled(NewSeededShuffler(1))
	seen := make(map[Card]bool, Size)
	for i := 0; i < Size; i++ {
		c, ok := d.Deal()
		if !ok {
			t.Fatalf("Deal() ran out at card %d", i)
		}
		if seen[c] {
			t.Fatalf("card %v dealt twice", c)
		}
		seen[c] = true
	}

	if _, ok := d.Deal(); ok {
		t.Error("Deal() succeeded on empty deck")
	}
	if got := d.DealN(3); len(got) != 0 {
		t.Errorf("DealN(3) on empty deck = %v, want empty", got)
	}
}

func TestDealN(t *testing.T) {
	t.Parallel()

	d := New()
	cards := d.DealN(2)
	if len(cards) != 2 {
		t.Fatalf("DealN(2) returned %d cards", len(cards))
	}
	if d.Remaining() != Size-2 {
		t.Errorf("Remaining() = %d, want %d", d.Remaining(), Size-2)
	}
}

func TestFromCardsPreservesOrder(t *testing.T) {
	t.Parallel()

	rigged := MustParseCards("AsKdQc")
	d := FromCards(rigged...)
	for i, want := range rigged {
		got, ok := d.Deal()
		if !ok || got != want {
			t.Fatalf("Deal() #%d = %v, want %v", i, got, want)
		}
	}
}

func TestSeededShufflerIsDeterministic(t *testing.T) {
	t.Parallel()

	a := NewShuffled(NewSeededShuffler(42))
	b := NewShuffled(NewSeededShuffler(42))
	if !cardsEqual(a.Cards(), b.Cards()) {
		t.Error("same seed produced different orderings")
	}

	c := NewShuffled(NewSeededShuffler(43))
	if cardsEqual(a.Cards(), c.Cards()) {
		t.Error("different seeds produced identical orderings")
	}
}

func TestCryptoShufflerPermutesFullDeck(t *testing.T) {
	t.Parallel()

	d := NewShuffled(CryptoShuffler{})
	if d.Remaining() != Size {
		t.Fatalf("Remaining() = %d, want %d", d.Remaining(), Size)
	}

	seen := make(map[Card]bool, Size)
	for _, c := range d.Cards() {
		seen[c] = true
	}
	if len(seen) != Size {
		t.Errorf("shuffle lost cards: %d distinct", len(seen))
	}
}

// TestCryptoShufflerUniformity deals many shuffles and checks that each
// of a few sampled cards lands in each position at a rate close to
// uniform. Tolerances are wide; this guards against gross bias (such as
// a modulo-biased index draw), not statistical perfection.
func TestCryptoShufflerUniformity(t *testing.T) {
	t.Parallel()

	const trials = 20000
	sampled := []Card{
		{Rank: Ace, Suit: Spades},
		{Rank: Two, Suit: Clubs},
		{Rank: Ten, Suit: Hearts},
	}

	counts := make(map[Card][]int, len(sampled))
	for _, c := range sampled {
		counts[c] = make([]int, Size)
	}

	var s CryptoShuffler
	cards := New().Cards()
	for i := 0; i < trials; i++ {
		s.Shuffle(cards)
		for pos, c := range cards {
			if slots, ok := counts[c]; ok {
				slots[pos]++
			}
		}
	}

	expected := float64(trials) / float64(Size)
	for card, slots := range counts {
		for pos, n := range slots {
			// Allow a generous band around the expected count. With
			// trials=20000 the expected count per cell is ~385 and the
			// standard deviation ~19.5, so a 35% band is > 6 sigma.
			if float64(n) < expected*0.65 || float64(n) > expected*1.35 {
				t.Errorf("card %v at position %d: count %d, expected about %.0f", card, pos, n, expected)
			}
		}
	}
}

func TestCryptoUint64nBounds(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{1, 2, 3, 13, 52} {
		for i := 0; i < 1000; i++ {
			if v := cryptoUint64n(n); v >= n {
				t.Fatalf("cryptoUint64n(%d) = %d, out of range", n, v)
			}
		}
	}
}
