package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/table"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS table_snapshots (
	table_id   TEXT PRIMARY KEY,
	snapshot   BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLite persists snapshots in a single-file database, one row per table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, game.Validationf("bad_storage_path", "storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, snap *table.Snapshot) error {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO table_snapshots (table_id, snapshot, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(table_id) DO UPDATE SET
		   snapshot   = excluded.snapshot,
		   updated_at = excluded.updated_at`,
		snap.Config.TableID, raw, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, tableID string) (*table.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM table_snapshots WHERE table_id = ?`, tableID)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.NotFoundf("table_not_found", "no snapshot for table %s", tableID)
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap table.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, game.Invariantf("bad_snapshot", "decoding snapshot for %s: %v", tableID, err)
	}
	return &snap, nil
}

func (s *SQLite) List(ctx context.Context) ([]*table.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id, snapshot FROM table_snapshots ORDER BY table_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*table.Snapshot
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		var snap table.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, game.Invariantf("bad_snapshot", "decoding snapshot for %s: %v", id, err)
		}
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, tableID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM table_snapshots WHERE table_id = ?`, tableID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
