package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pulseboard/pulseboard/internal/shared"
)

// Service composes token verification with profile resolution.
type Service struct {
	verifier TokenVerifier
	issuer   TokenIssuer
	repo     Repository
	logger   *slog.Logger
	tokenTTL time.Duration
}

// NewService constructs a new Service.
func NewService(verifier TokenVerifier, issuer TokenIssuer, repo Repository, logger *slog.Logger, tokenTTL time.Duration) *Service {
	return &Service{verifier: verifier, issuer: issuer, repo: repo, logger: logger, tokenTTL: tokenTTL}
}

// Authenticate validates a bearer token and resolves the principal role.
// Token validity is the sole hard gate: a failed profile lookup is logged
// and the principal falls back to the default role.
func (s *Service) Authenticate(ctx context.Context, token string) (*shared.Principal, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	principal := &shared.Principal{
		ID:    identity.UserID,
		Email: identity.Email,
		Role:  shared.DefaultRole,
	}
	profile, err := s.repo.FindProfile(ctx, identity.UserID)
	switch {
	case err == nil:
		if profile.Role != "" {
			principal.Role = profile.Role
		}
	case errors.Is(err, shared.ErrNotFound):
		// Profile absence is non-fatal.
	default:
		if s.logger != nil {
			s.logger.Error("profile lookup failed", slog.String("user_id", identity.UserID), slog.Any("error", err))
		}
	}
	return principal, nil
}

// IssueToken verifies email/password credentials and mints a bearer token.
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, time.Duration, error) {
	profile, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", 0, shared.ErrInvalidCredentials
	}
	if !profile.IsActive {
		return "", 0, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", 0, shared.ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(Identity{UserID: profile.ID, Email: profile.Email}, s.tokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, s.tokenTTL, nil
}
