package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindProfile(ctx context.Context, userID string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool db.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool db.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindProfile fetches a profile by user id.
func (r *PGRepository) FindProfile(ctx context.Context, userID string) (*Profile, error) {
	const q = `SELECT id, email, role, is_active, created_at, updated_at FROM profiles WHERE id=$1`
	var p Profile
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.ID, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByEmail fetches a profile with credentials by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	const q = `SELECT id, email, role, password_hash, is_active, created_at, updated_at FROM profiles WHERE email=$1`
	var p Profile
	err := r.pool.QueryRow(ctx, q, email).Scan(&p.ID, &p.Email, &p.Role, &p.PasswordHash, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ Repository = (*PGRepository)(nil)
