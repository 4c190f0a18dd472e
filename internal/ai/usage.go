package ai

import (
	"context"
	"time"

	"github.com/pulseboard/pulseboard/internal/platform/db"
)

// UsageStore counts and appends AI usage records.
type UsageStore interface {
	CountSince(ctx context.Context, workspaceID string, since time.Time) (int64, error)
	Append(ctx context.Context, rec UsageRecord) error
}

// PGUsageStore implements UsageStore using PostgreSQL.
type PGUsageStore struct {
	pool db.Pool
}

// NewUsageStore constructs a PostgreSQL usage store.
func NewUsageStore(pool db.Pool) *PGUsageStore {
	return &PGUsageStore{pool: pool}
}

// CountSince counts usage rows for a workspace created at or after since.
func (s *PGUsageStore) CountSince(ctx context.Context, workspaceID string, since time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM ai_usage_logs WHERE workspace_id=$1 AND created_at >= $2`
	var count int64
	if err := s.pool.QueryRow(ctx, q, workspaceID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Append inserts one usage record.
func (s *PGUsageStore) Append(ctx context.Context, rec UsageRecord) error {
	const q = `
INSERT INTO ai_usage_logs (id, user_id, workspace_id, prompt_hash, prompt_length, response_length, model, tokens_used, duration_ms, cached, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.UserID, rec.WorkspaceID, rec.PromptHash, rec.PromptLength,
		rec.ResponseLength, rec.Model, rec.TokensUsed, rec.DurationMS, rec.Cached, rec.CreatedAt)
	return err
}

var _ UsageStore = (*PGUsageStore)(nil)
