package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates a malformed, unsigned or tampered token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token past its expiry claim.
	ErrExpiredToken = errors.New("expired token")
)

// TokenVerifier validates a bearer credential against an identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// TokenIssuer mints credentials for the self-hosted identity provider mode.
type TokenIssuer interface {
	Issue(identity Identity, ttl time.Duration) (string, error)
}

// HS256Verifier verifies and issues HMAC-SHA256 signed JWTs.
type HS256Verifier struct {
	secret []byte
}

// NewHS256Verifier constructs a verifier from a shared secret.
func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the embedded identity.
func (v *HS256Verifier) Verify(_ context.Context, token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: sub, Email: email}, nil
}

// Issue mints a signed token for the identity with the given lifetime.
func (v *HS256Verifier) Issue(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"email": identity.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"jti":   uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

var (
	_ TokenVerifier = (*HS256Verifier)(nil)
	_ TokenIssuer   = (*HS256Verifier)(nil)
)
