package table

// turnToken pins a scheduled timeout to one specific turn. Any mutation
// that moves the action bumps the sequence, so a timer that fires late
// finds its token stale and does nothing.
type turnToken struct {
	handID string
	seq    uint64
}

// armTurnTimerLocked schedules a forced fold for the current actor. Called
// after every state change while a hand is running; replaces any previous
// timer.
func (t *Table) armTurnTimerLocked() {
	t.stopTurnTimerLocked()
	if t.cfg.TurnTimeout <= 0 || t.closed || t.hand == nil || t.hand.Complete() {
		return
	}
	seat, ok := t.hand.ActingSeat()
	if !ok {
		return
	}
	t.turnSeq++
	tok := turnToken{handID: t.hand.ID(), seq: t.turnSeq}
	t.turnTimer = t.deps.Clock.AfterFunc(t.cfg.TurnTimeout, func() {
		t.expireTurn(tok, seat)
	})
}

func (t *Table) stopTurnTimerLocked() {
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
}

// expireTurn runs on the clock goroutine when a player sits past the turn
// timeout. The token is re-checked under the lock: if the action moved in
// the meantime the fire is stale and dropped silently.
func (t *Table) expireTurn(tok turnToken, seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hand == nil || t.hand.ID() != tok.handID || t.turnSeq != tok.seq {
		t.deps.Logger.Debug("stale turn timer", "table", t.cfg.TableID, "seat", seat)
		return
	}
	if acting, ok := t.hand.ActingSeat(); !ok || acting != seat {
		t.deps.Logger.Debug("stale turn timer", "table", t.cfg.TableID, "seat", seat)
		return
	}
	t.deps.Logger.Info("turn timeout", "table", t.cfg.TableID, "hand", t.hand.ID(), "seat", seat)
	if err := t.hand.ForceFold(seat); err != nil {
		t.deps.Logger.Error("forced fold failed", "table", t.cfg.TableID, "seat", seat, "err", err)
		return
	}
	events := t.hand.TakeEvents()
	events = append(events, t.postApplyLocked()...)
	t.commitLocked(events...)
}
