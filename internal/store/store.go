// Package store persists table snapshots so a restarted server can pick
// up every table, including hands in flight, where it left off.
package store

import (
	"context"

	"github.com/feltcraft/cardroom/internal/table"
)

// Store is the snapshot repository. Save overwrites any previous snapshot
// for the same table; Load returns a NotFound error for unknown tables.
type Store interface {
	Save(ctx context.Context, snap *table.Snapshot) error
	Load(ctx context.Context, tableID string) (*table.Snapshot, error)
	List(ctx context.Context) ([]*table.Snapshot, error)
	Delete(ctx context.Context, tableID string) error
	Close() error
}
