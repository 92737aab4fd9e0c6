package deck

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	rand "math/rand/v2"
)

// Shuffler produces a permutation of a card slice in place.
type Shuffler interface {
	Shuffle(cards []Card)
}

// CryptoShuffler shuffles with a Fisher-Yates pass driven by the
// operating system's cryptographic random source. Index draws use
// rejection sampling, so every ordering of the deck is equally likely.
// This is the only shuffler suitable for live play.
type CryptoShuffler struct{}

// Shuffle permutes cards in place.
func (CryptoShuffler) Shuffle(cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := cryptoUint64n(uint64(i + 1))
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// cryptoUint64n returns a uniform value in [0, n). Draws falling in
// the truncated top range of uint64 are rejected and retried rather
// than folded in with a modulo, which would bias low values.
func cryptoUint64n(n uint64) uint64 {
	rejected := (math.MaxUint64%n + 1) % n
	for {
		v := cryptoUint64()
		if rejected == 0 || v <= math.MaxUint64-rejected {
			return v % n
		}
	}
}

func cryptoUint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// The platform entropy source is unavailable. There is no
		// sound way to deal cards without it.
		panic("deck: reading entropy source: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

const goldenRatio64 = 0x9e3779b97f4a7c15

// SeededShuffler shuffles with a deterministic PCG generator derived
// from a single seed. Reproducible runs for tests and simulations;
// never used for live play.
type SeededShuffler struct {
	rng *rand.Rand
}

// NewSeededShuffler returns a shuffler producing the same permutation
// sequence for the same seed.
func NewSeededShuffler(seed int64) *SeededShuffler {
	u := uint64(seed)
	return &SeededShuffler{rng: rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))}
}

// Shuffle permutes cards in place.
func (s *SeededShuffler) Shuffle(cards []Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// mix spreads seed entropy across both PCG state words.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
