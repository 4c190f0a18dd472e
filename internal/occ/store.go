// Package occ implements a version-stamped read-modify-write protocol for
// mutable records: conditional writes, retry with capped backoff, conflict
// detection and a three-way merge helper.
package occ

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// ErrVersionMismatch is returned by a conditional write when no row
// matched (id, expected version).
var ErrVersionMismatch = errors.New("version mismatch")

// Record is a versioned row. The store, not the engine, increments the
// version on every successful write.
type Record struct {
	ID      string         `json:"id"`
	Version int64          `json:"version"`
	Data    map[string]any `json:"data"`
}

// Store is the versioned persistence contract the engine runs against.
// Correctness depends on UpdateWithVersion being atomic in the store:
// the write applies fully against the exact expected version or not at
// all.
type Store interface {
	Get(ctx context.Context, table, id string) (*Record, error)
	UpdateWithVersion(ctx context.Context, table, id string, expectedVersion int64, patch map[string]any) (*Record, error)
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PGStore implements Store over PostgreSQL tables shaped as
// (id, version, data jsonb). Table names are interpolated and therefore
// restricted to plain identifiers.
type PGStore struct {
	pool db.Pool
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(pool db.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Get fetches the current record.
func (s *PGStore) Get(ctx context.Context, table, id string) (*Record, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("occ: invalid table name %q", table)
	}
	q := fmt.Sprintf(`SELECT id, version, data FROM %s WHERE id=$1`, table)
	var rec Record
	if err := s.pool.QueryRow(ctx, q, id).Scan(&rec.ID, &rec.Version, &rec.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateWithVersion applies the patch only when the stored version equals
// expectedVersion, incrementing the version in the same statement.
func (s *PGStore) UpdateWithVersion(ctx context.Context, table, id string, expectedVersion int64, patch map[string]any) (*Record, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("occ: invalid table name %q", table)
	}
	q := fmt.Sprintf(`
UPDATE %s SET data = data || $3, version = version + 1, updated_at = now()
WHERE id=$1 AND version=$2
RETURNING id, version, data`, table)
	var rec Record
	if err := s.pool.QueryRow(ctx, q, id, expectedVersion, patch).Scan(&rec.ID, &rec.Version, &rec.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionMismatch
		}
		return nil, err
	}
	return &rec, nil
}

var _ Store = (*PGStore)(nil)
