package game

import "github.com/feltcraft/cardroom/internal/deck"

// HandSnapshot captures a hand mid-flight so it can be persisted and
// resumed. Pending events are not part of the snapshot; they are published
// before saving.
type HandSnapshot struct {
	Config  HandConfig    `json:"config"`
	Phase   Phase         `json:"phase"`
	Board   []deck.Card   `json:"board,omitempty"`
	Deck    []deck.Card   `json:"deck"`
	Players []*Player     `json:"players"`
	Betting *BettingRound `json:"betting,omitempty"`
	Acting  int           `json:"acting"`
	BuyIns  int           `json:"buy_ins"`
}

// Snapshot exports the full hand state, including the undealt remainder of
// the deck so a resumed hand plays out the same board.
func (h *Hand) Snapshot() *HandSnapshot {
	players := make([]*Player, len(h.players))
	for i, p := range h.players {
		cp := *p
		cp.HoleCards = append([]deck.Card{}, p.HoleCards...)
		players[i] = &cp
	}
	var betting *BettingRound
	if h.betting != nil {
		cp := *h.betting
		cp.Acted = make(map[int]bool, len(h.betting.Acted))
		for k, v := range h.betting.Acted {
			cp.Acted[k] = v
		}
		betting = &cp
	}
	return &HandSnapshot{
		Config:  h.cfg,
		Phase:   h.phase,
		Board:   h.Board(),
		Deck:    h.deck.Cards(),
		Players: players,
		Betting: betting,
		Acting:  h.acting,
		BuyIns:  h.buyIns,
	}
}

// RestoreHand rebuilds a hand from a snapshot. The restored hand owns its
// player structs; callers read stacks back out through Players.
func RestoreHand(s *HandSnapshot) (*Hand, error) {
	if s == nil {
		return nil, Validationf("nil_snapshot", "hand snapshot is nil")
	}
	if len(s.Players) < 2 {
		return nil, Validationf("bad_snapshot", "snapshot has %d players", len(s.Players))
	}
	if s.Phase < PhasePreflop || s.Phase > PhasePayout {
		return nil, Validationf("bad_snapshot", "snapshot has unknown phase %d", s.Phase)
	}
	if s.Acting < -1 || s.Acting >= len(s.Players) {
		return nil, Validationf("bad_snapshot", "acting index %d out of range", s.Acting)
	}
	if s.Phase.betting() && s.Betting == nil {
		return nil, Validationf("bad_snapshot", "betting phase without betting state")
	}
	h := &Hand{
		cfg:     s.Config,
		phase:   s.Phase,
		players: make([]*Player, len(s.Players)),
		board:   append([]deck.Card{}, s.Board...),
		deck:    deck.FromCards(s.Deck...),
		acting:  s.Acting,
		buyIns:  s.BuyIns,
	}
	for i, p := range s.Players {
		cp := *p
		cp.HoleCards = append([]deck.Card{}, p.HoleCards...)
		h.players[i] = &cp
	}
	buttonFound := false
	for i, p := range h.players {
		if p.Seat == s.Config.Button {
			h.buttonIdx = i
			buttonFound = true
		}
	}
	if !buttonFound {
		return nil, Validationf("bad_snapshot", "button seat %d not in snapshot", s.Config.Button)
	}
	if s.Betting != nil {
		cp := *s.Betting
		cp.Acted = make(map[int]bool, len(s.Betting.Acted))
		for k, v := range s.Betting.Acted {
			cp.Acted[k] = v
		}
		if cp.BigBlind == 0 {
			cp.BigBlind = s.Config.BigBlind
		}
		h.betting = &cp
	}
	return h, nil
}
