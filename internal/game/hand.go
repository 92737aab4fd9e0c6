package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/evaluator"
)

// Phase is where a hand stands in its lifecycle. Preflop through River are
// betting rounds; Showdown and Payout resolve the pots. A hand in Payout is
// complete.
type Phase uint8

const (
	PhasePreflop Phase = iota + 1
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhasePayout
)

func (p Phase) String() string {
	switch p {
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	case PhasePayout:
		return "payout"
	default:
		return "unknown"
	}
}

// ParsePhase converts a phase name back to its value.
func ParsePhase(s string) (Phase, error) {
	for p := PhasePreflop; p <= PhasePayout; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, Validationf("unknown_phase", "unknown phase %q", s)
}

// MarshalJSON writes the phase by name so clients never see raw codes.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Phase) betting() bool { return p >= PhasePreflop && p <= PhaseRiver }

// HandConfig fixes the parameters of a single hand.
type HandConfig struct {
	TableID    string `json:"table_id"`
	HandID     string `json:"hand_id"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	// Button is the seat holding the dealer button. It must belong to one of
	// the dealt-in players.
	Button int `json:"button"`
}

// HandOption tweaks hand construction, mainly for tests.
type HandOption func(*handOptions)

type handOptions struct {
	shuffler deck.Shuffler
	stacked  []deck.Card
}

// WithShuffler replaces the crypto shuffler, e.g. with a seeded one.
func WithShuffler(s deck.Shuffler) HandOption {
	return func(o *handOptions) { o.shuffler = s }
}

// WithStackedDeck fixes the exact deal order. Tests use this to script
// boards and hole cards.
func WithStackedDeck(cards []deck.Card) HandOption {
	return func(o *handOptions) { o.stacked = cards }
}

// Hand runs one hand of hold'em from deal to payout. It is a pure state
// machine: no clocks, no locks, no IO. Callers serialize access and drain
// the event buffer after each operation.
type Hand struct {
	cfg       HandConfig
	phase     Phase
	players   []*Player
	buttonIdx int
	board     []deck.Card
	deck      *deck.Deck
	betting   *BettingRound
	acting    int // index into players, -1 when nobody acts
	buyIns    int
	events    []Event
}

// NewHand deals a fresh hand: shuffles, deals hole cards starting left of
// the button, posts blinds and opens preflop betting. Heads-up the button
// posts the small blind and acts first preflop. If the blinds put everyone
// all-in the board runs out immediately.
func NewHand(cfg HandConfig, players []*Player, opts ...HandOption) (*Hand, error) {
	if len(players) < 2 {
		return nil, Validationf("not_enough_players", "a hand needs at least 2 players, got %d", len(players))
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= 0 || cfg.SmallBlind > cfg.BigBlind {
		return nil, Validationf("bad_blinds", "invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	seen := make(map[int]bool, len(players))
	for _, p := range players {
		if p.Stack <= 0 {
			return nil, Validationf("empty_stack", "seat %d has no chips", p.Seat)
		}
		if seen[p.Seat] {
			return nil, Validationf("duplicate_seat", "seat %d appears twice", p.Seat)
		}
		seen[p.Seat] = true
	}
	if !seen[cfg.Button] {
		return nil, Validationf("bad_button", "button seat %d is not dealt in", cfg.Button)
	}

	var o handOptions
	for _, opt := range opts {
		opt(&o)
	}

	h := &Hand{
		cfg:     cfg,
		phase:   PhasePreflop,
		players: make([]*Player, len(players)),
		acting:  -1,
	}
	copy(h.players, players)
	sort.Slice(h.players, func(i, j int) bool { return h.players[i].Seat < h.players[j].Seat })
	for i, p := range h.players {
		if p.Seat == cfg.Button {
			h.buttonIdx = i
		}
		h.buyIns += p.Stack
	}

	switch {
	case o.stacked != nil:
		h.deck = deck.FromCards(o.stacked...)
	case o.shuffler != nil:
		h.deck = deck.NewShuffled(o.shuffler)
	default:
		h.deck = deck.NewShuffled(deck.CryptoShuffler{})
	}

	n := len(h.players)
	for i := 1; i <= n; i++ {
		p := h.players[(h.buttonIdx+i)%n]
		cards := h.deck.DealN(2)
		if len(cards) != 2 {
			return nil, Invariantf("deck_exhausted", "deck ran out dealing hole cards")
		}
		p.HoleCards = cards
	}

	sbIdx := (h.buttonIdx + 1) % n
	bbIdx := (h.buttonIdx + 2) % n
	if n == 2 {
		sbIdx = h.buttonIdx
		bbIdx = (h.buttonIdx + 1) % n
	}
	h.players[sbIdx].commit(cfg.SmallBlind)
	h.players[bbIdx].commit(cfg.BigBlind)

	h.betting = NewBettingRound(cfg.BigBlind, cfg.BigBlind)
	h.acting, _ = h.firstCanActFrom((bbIdx + 1) % n)

	started := HandStarted{
		Meta:       NewMeta(cfg.TableID, cfg.HandID),
		Button:     cfg.Button,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Seats:      h.seatStates(),
		NextToAct:  h.actingSeat(),
	}
	h.events = append(h.events, started)

	// Blinds can put everyone all-in before anyone acts.
	if h.betting.Complete(h.players) {
		h.acting = -1
		if err := h.advancePhase(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ID returns the hand identifier.
func (h *Hand) ID() string { return h.cfg.HandID }

// Phase returns the current lifecycle phase.
func (h *Hand) Phase() Phase { return h.phase }

// Complete reports whether the pots have been paid out.
func (h *Hand) Complete() bool { return h.phase == PhasePayout }

// Board returns a copy of the community cards dealt so far.
func (h *Hand) Board() []deck.Card {
	out := make([]deck.Card, len(h.board))
	copy(out, h.board)
	return out
}

// Players returns the dealt-in players in seat order. The pointers are
// shared with the caller that started the hand.
func (h *Hand) Players() []*Player {
	out := make([]*Player, len(h.players))
	copy(out, h.players)
	return out
}

// PlayerBySeat finds a dealt-in player.
func (h *Hand) PlayerBySeat(seat int) (*Player, bool) {
	for _, p := range h.players {
		if p.Seat == seat {
			return p, true
		}
	}
	return nil, false
}

// ActingSeat returns the seat whose turn it is, or false when no action is
// pending.
func (h *Hand) ActingSeat() (int, bool) {
	if h.acting < 0 {
		return 0, false
	}
	return h.players[h.acting].Seat, true
}

// PotTotal is the number of chips committed so far.
func (h *Hand) PotTotal() int { return PotTotal(h.players) }

// CurrentBet is the round total a player must match this street.
func (h *Hand) CurrentBet() int {
	if h.betting == nil {
		return 0
	}
	return h.betting.CurrentBet
}

// MinRaise is the size of the last full raise this street.
func (h *Hand) MinRaise() int {
	if h.betting == nil {
		return 0
	}
	return h.betting.MinRaise
}

// ValidActions lists the legal actions for the seat. Only the acting player
// has any.
func (h *Hand) ValidActions(seat int) ([]ValidAction, error) {
	if h.acting < 0 || h.players[h.acting].Seat != seat {
		return nil, RuleViolationf("out_of_turn", "seat %d is not acting", seat)
	}
	return h.betting.ValidActions(h.players[h.acting]), nil
}

// TakeEvents drains the buffered domain events for publication.
func (h *Hand) TakeEvents() []Event {
	evs := h.events
	h.events = nil
	return evs
}

// Apply validates and applies a betting action by the seat. On success the
// event buffer holds a PlayerActed event plus whatever followed from it
// (street reveals, pot awards, hand end).
func (h *Hand) Apply(seat int, action Action, amount int) error {
	return h.apply(seat, action, amount, false)
}

// ForceFold folds the acting seat on behalf of the turn timer.
func (h *Hand) ForceFold(seat int) error {
	return h.apply(seat, Fold, 0, true)
}

func (h *Hand) apply(seat int, action Action, amount int, forced bool) error {
	if !h.phase.betting() {
		return RuleViolationf("no_betting", "no betting in %s", h.phase)
	}
	if !action.Valid() {
		return Validationf("unknown_action", "unknown action %d", action)
	}
	if amount < 0 {
		return Validationf("negative_amount", "amount must not be negative")
	}
	if h.acting < 0 || h.players[h.acting].Seat != seat {
		return RuleViolationf("out_of_turn", "seat %d acted out of turn", seat)
	}
	actor := h.players[h.acting]
	if !actor.CanAct() {
		return Invariantf("bad_actor", "acting seat %d cannot act", seat)
	}

	br := h.betting
	evAmount := 0
	switch action {
	case Fold:
		actor.Folded = true
		br.markActed(seat)

	case Check:
		if br.toCall(actor) != 0 {
			return RuleViolationf("cannot_check", "facing a bet of %d", br.CurrentBet)
		}
		br.markActed(seat)

	case Call:
		owed := br.toCall(actor)
		if owed == 0 {
			return RuleViolationf("nothing_to_call", "no bet to call, check instead")
		}
		evAmount = actor.commit(owed)
		br.markActed(seat)

	case Bet:
		if br.CurrentBet != 0 {
			return RuleViolationf("cannot_bet", "facing a bet of %d, raise instead", br.CurrentBet)
		}
		if amount <= 0 {
			return Validationf("bad_amount", "bet needs a positive amount")
		}
		max := actor.roundTotal()
		if amount > max {
			return RuleViolationf("insufficient_chips", "bet of %d exceeds stack of %d", amount, max)
		}
		if amount < br.BigBlind && amount != max {
			return RuleViolationf("below_min_bet", "bet of %d below minimum %d", amount, br.BigBlind)
		}
		actor.commit(amount - actor.Bet)
		if amount >= br.BigBlind {
			br.applyFullRaise(seat, amount)
		} else {
			br.applyShortRaise(seat, amount)
		}
		evAmount = amount

	case Raise:
		if br.CurrentBet == 0 {
			return RuleViolationf("cannot_raise", "no bet to raise, bet instead")
		}
		if !br.reopened(actor) {
			return RuleViolationf("betting_not_reopened", "a short all-in does not reopen betting")
		}
		if amount <= br.CurrentBet {
			return RuleViolationf("below_min_raise", "raise to %d does not exceed current bet %d", amount, br.CurrentBet)
		}
		max := actor.roundTotal()
		if amount > max {
			return RuleViolationf("insufficient_chips", "raise to %d exceeds stack of %d", amount, max)
		}
		full := br.CurrentBet + br.MinRaise
		if amount < full && amount != max {
			return RuleViolationf("below_min_raise", "raise to %d below minimum %d", amount, full)
		}
		actor.commit(amount - actor.Bet)
		if amount >= full {
			br.applyFullRaise(seat, amount)
		} else {
			br.applyShortRaise(seat, amount)
		}
		evAmount = amount
	}
	actor.LastAction = action

	acted := PlayerActed{
		Meta:      NewMeta(h.cfg.TableID, h.cfg.HandID),
		Seat:      seat,
		PlayerID:  actor.ID,
		Action:    action,
		Amount:    evAmount,
		AllIn:     actor.AllIn,
		Forced:    forced,
		Pot:       h.PotTotal(),
		NextToAct: -1,
	}

	if last, n := h.lastInHand(); n == 1 {
		h.events = append(h.events, acted)
		h.finishEarly(last)
		return nil
	}
	if br.Complete(h.players) {
		h.events = append(h.events, acted)
		return h.advancePhase()
	}
	next, ok := h.firstCanActFrom((h.acting + 1) % len(h.players))
	if !ok {
		return Invariantf("no_actor", "betting open with nobody to act")
	}
	h.acting = next
	acted.NextToAct = h.players[next].Seat
	h.events = append(h.events, acted)
	return nil
}

// advancePhase closes the current street and deals the next one, cascading
// through streets with no possible action until betting reopens or the hand
// reaches showdown.
func (h *Hand) advancePhase() error {
	for {
		for _, p := range h.players {
			p.Bet = 0
		}
		if h.phase == PhaseRiver {
			return h.showdown()
		}

		n := 1
		if h.phase == PhasePreflop {
			n = 3
		}
		cards := h.deck.DealN(n)
		if len(cards) != n {
			return Invariantf("deck_exhausted", "deck ran out dealing the board")
		}
		h.board = append(h.board, cards...)
		h.phase++

		h.betting = NewBettingRound(h.cfg.BigBlind, 0)
		h.acting = -1
		if h.countCanAct() >= 2 {
			h.acting, _ = h.firstCanActFrom((h.buttonIdx + 1) % len(h.players))
		}

		h.events = append(h.events, CardsRevealed{
			Meta:      NewMeta(h.cfg.TableID, h.cfg.HandID),
			Phase:     h.phase,
			Cards:     cards,
			Board:     h.Board(),
			Pot:       h.PotTotal(),
			NextToAct: h.actingSeat(),
		})
		if h.acting >= 0 {
			return nil
		}
	}
}

// showdown evaluates the remaining hands, splits every pot among its best
// eligible hands and pays the winners. Total awards must equal the total
// contributions or the payout is aborted.
func (h *Hand) showdown() error {
	h.phase = PhaseShowdown
	h.acting = -1

	ranks := make(map[int]evaluator.HandRank, len(h.players))
	var showings []Showing
	for _, p := range h.players {
		if !p.InHand() {
			continue
		}
		cards := append(append([]deck.Card{}, p.HoleCards...), h.board...)
		rank, err := evaluator.Evaluate(cards...)
		if err != nil {
			return Invariantf("bad_showdown_hand", "evaluating seat %d", p.Seat).Wrap(err)
		}
		ranks[p.Seat] = rank
		showings = append(showings, Showing{
			Seat:      p.Seat,
			PlayerID:  p.ID,
			HoleCards: append([]deck.Card{}, p.HoleCards...),
			HandName:  rank.Category().String(),
		})
	}

	pots := BuildPots(h.players)
	awards := make(map[int]int)
	var potEvents []Event
	total := 0
	for i, pot := range pots {
		best := evaluator.HandRank(0)
		var winners []int
		for _, seat := range pot.Eligible {
			switch r := ranks[seat]; {
			case r.Beats(best):
				best = r
				winners = []int{seat}
			case r == best:
				winners = append(winners, seat)
			}
		}
		if len(winners) == 0 {
			return Invariantf("orphan_pot", "pot of %d has no eligible winner", pot.Amount)
		}
		h.sortFromButton(winners)
		share := pot.Amount / len(winners)
		odd := pot.Amount % len(winners)
		shares := make([]PotShare, len(winners))
		for j, seat := range winners {
			cut := share
			if j < odd {
				cut++
			}
			awards[seat] += cut
			total += cut
			p, _ := h.PlayerBySeat(seat)
			shares[j] = PotShare{Seat: seat, PlayerID: p.ID, Amount: cut}
		}
		potEvents = append(potEvents, PotAwarded{
			Meta:     NewMeta(h.cfg.TableID, h.cfg.HandID),
			PotIndex: i,
			Amount:   pot.Amount,
			Shares:   shares,
		})
	}
	if total != h.PotTotal() {
		return Invariantf("chip_conservation", "awards %d do not match pot %d", total, h.PotTotal())
	}

	for seat, amount := range awards {
		p, _ := h.PlayerBySeat(seat)
		p.Stack += amount
	}
	var lines []string
	for _, p := range h.players {
		amount, won := awards[p.Seat]
		if !won {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s wins %d with %s", h.displayName(p), amount, ranks[p.Seat].Category()))
	}
	h.events = append(h.events, potEvents...)
	h.phase = PhasePayout
	h.events = append(h.events, HandEnded{
		Meta:     NewMeta(h.cfg.TableID, h.cfg.HandID),
		Board:    h.Board(),
		Showdown: true,
		Showings: showings,
		Seats:    h.seatStates(),
		Summary:  strings.Join(lines, "; "),
	})
	return nil
}

// finishEarly ends the hand when a single player remains, returning the
// whole pot, their own uncalled chips included, without revealing cards.
func (h *Hand) finishEarly(winner *Player) {
	pot := h.PotTotal()
	winner.Stack += pot
	for _, p := range h.players {
		p.Bet = 0
	}
	h.acting = -1
	h.phase = PhasePayout
	h.events = append(h.events,
		PotAwarded{
			Meta:     NewMeta(h.cfg.TableID, h.cfg.HandID),
			PotIndex: 0,
			Amount:   pot,
			Shares:   []PotShare{{Seat: winner.Seat, PlayerID: winner.ID, Amount: pot}},
		},
		HandEnded{
			Meta:     NewMeta(h.cfg.TableID, h.cfg.HandID),
			Board:    h.Board(),
			Showdown: false,
			Seats:    h.seatStates(),
			Summary:  fmt.Sprintf("%s wins %d uncontested", h.displayName(winner), pot),
		},
	)
}

func (h *Hand) displayName(p *Player) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("seat %d", p.Seat)
}

func (h *Hand) actingSeat() int {
	if h.acting < 0 {
		return -1
	}
	return h.players[h.acting].Seat
}

func (h *Hand) firstCanActFrom(idx int) (int, bool) {
	n := len(h.players)
	for i := 0; i < n; i++ {
		j := (idx + i) % n
		if h.players[j].CanAct() {
			return j, true
		}
	}
	return -1, false
}

func (h *Hand) countCanAct() int {
	n := 0
	for _, p := range h.players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

func (h *Hand) lastInHand() (*Player, int) {
	var last *Player
	n := 0
	for _, p := range h.players {
		if p.InHand() {
			last = p
			n++
		}
	}
	return last, n
}

// sortFromButton orders seats clockwise starting left of the button, the
// order odd chips are handed out in.
func (h *Hand) sortFromButton(seats []int) {
	n := len(h.players)
	pos := func(seat int) int {
		for i, p := range h.players {
			if p.Seat == seat {
				return (i - h.buttonIdx - 1 + n) % n
			}
		}
		return n
	}
	sort.Slice(seats, func(i, j int) bool { return pos(seats[i]) < pos(seats[j]) })
}

func (h *Hand) seatStates() []SeatState {
	out := make([]SeatState, len(h.players))
	for i, p := range h.players {
		out[i] = SeatState{
			Seat:     p.Seat,
			PlayerID: p.ID,
			Name:     p.Name,
			Stack:    p.Stack,
			Bet:      p.Bet,
			Folded:   p.Folded,
			AllIn:    p.AllIn,
		}
	}
	return out
}
