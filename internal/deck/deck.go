package deck

// Size is the number of cards in a full deck.
const Size = 52

// Deck represents an ordered deck of playing cards, consumed from the
// top by dealing. A dealt card is never returned to the deck.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck in canonical (unshuffled) order.
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	return d
}

// NewShuffled creates a full deck and shuffles it with the given shuffler.
func NewShuffled(s Shuffler) *Deck {
	d := New()
	d.Shuffle(s)
	return d
}

// FromCards creates a deck containing exactly the given cards in order.
// Used to restore snapshots and to rig decks in tests.
func FromCards(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle permutes the remaining cards in place using the given shuffler.
func (d *Deck) Shuffle(s Shuffler) {
	s.Shuffle(d.cards)
}

// Deal removes and returns the top card. The second return value is
// false when the deck is empty.
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the top of the deck.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i], _ = d.Deal()
	}
	return cards
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards in deal order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
