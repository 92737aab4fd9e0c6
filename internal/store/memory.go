package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/table"
)

// Memory keeps snapshots in process memory. It stores the marshaled form
// so callers get detached copies back, same as the SQLite store.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{snaps: make(map[string][]byte)}
}

func (m *Memory) Save(ctx context.Context, snap *table.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.Config.TableID == "" {
		return game.Validationf("bad_snapshot", "snapshot needs a table id")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return game.Validationf("bad_snapshot", "encoding snapshot: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Config.TableID] = raw
	return nil
}

func (m *Memory) Load(ctx context.Context, tableID string) (*table.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	raw, ok := m.snaps[tableID]
	m.mu.RUnlock()
	if !ok {
		return nil, game.NotFoundf("table_not_found", "no snapshot for table %s", tableID)
	}
	var snap table.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, game.Invariantf("bad_snapshot", "decoding snapshot for %s: %v", tableID, err)
	}
	return &snap, nil
}

func (m *Memory) List(ctx context.Context) ([]*table.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	out := make([]*table.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := m.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, tableID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, tableID)
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
