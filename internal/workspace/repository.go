// Package workspace authorizes requests against workspace memberships.
package workspace

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// Repository defines persistence operations for workspace memberships.
// Memberships are read-only from this core's perspective and looked up
// per request, never cached.
type Repository interface {
	FindMembership(ctx context.Context, workspaceID, userID string) (*shared.Membership, error)
	ListMembers(ctx context.Context, workspaceID string) ([]shared.Membership, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool db.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool db.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindMembership fetches exactly one membership row for (workspace, user).
func (r *PGRepository) FindMembership(ctx context.Context, workspaceID, userID string) (*shared.Membership, error) {
	const q = `SELECT workspace_id, user_id, role FROM workspace_members WHERE workspace_id=$1 AND user_id=$2`
	var m shared.Membership
	err := r.pool.QueryRow(ctx, q, workspaceID, userID).Scan(&m.WorkspaceID, &m.UserID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMembers returns all memberships of a workspace.
func (r *PGRepository) ListMembers(ctx context.Context, workspaceID string) ([]shared.Membership, error) {
	const q = `SELECT workspace_id, user_id, role FROM workspace_members WHERE workspace_id=$1 ORDER BY user_id`
	rows, err := r.pool.Query(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []shared.Membership
	for rows.Next() {
		var m shared.Membership
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

var _ Repository = (*PGRepository)(nil)
