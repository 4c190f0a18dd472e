package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/shared"
	_ "github.com/pulseboard/pulseboard/testing"
)

type stubRepo struct {
	profile    *auth.Profile
	profileErr error
}

func (s *stubRepo) FindProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.profile == nil {
		return nil, shared.ErrNotFound
	}
	return s.profile, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Profile, error) {
	return s.FindProfile(ctx, email)
}

func newGate(t *testing.T, repo auth.Repository) (auth.Gate, *auth.HS256Verifier) {
	t.Helper()
	verifier := auth.NewHS256Verifier("gate-secret")
	service := auth.NewService(verifier, verifier, repo, slog.Default(), time.Hour)
	return auth.Gate{Service: service, Logger: slog.Default()}, verifier
}

func capturingHandler(invoked *bool, principal **shared.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*invoked = true
		*principal = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireMissingHeader(t *testing.T) {
	gate, _ := newGate(t, &stubRepo{})
	invoked := false
	var principal *shared.Principal

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	gate.Require(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.False(t, invoked, "handler must not run without a token")
}

func TestRequireWrongScheme(t *testing.T) {
	gate, _ := newGate(t, &stubRepo{})
	invoked := false
	var principal *shared.Principal

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	res := httptest.NewRecorder()
	gate.Require(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.False(t, invoked)
}

func TestRequireInvalidToken(t *testing.T) {
	gate, _ := newGate(t, &stubRepo{})
	invoked := false
	var principal *shared.Principal

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	res := httptest.NewRecorder()
	gate.Require(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.False(t, invoked)
}

func TestRequireResolvesProfileRole(t *testing.T) {
	gate, verifier := newGate(t, &stubRepo{profile: &auth.Profile{ID: "u1", Email: "u1@test.local", Role: "developer"}})
	token, err := verifier.Issue(auth.Identity{UserID: "u1", Email: "u1@test.local"}, time.Hour)
	require.NoError(t, err)

	invoked := false
	var principal *shared.Principal
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	gate.Require(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, invoked)
	require.Equal(t, "developer", principal.Role)
	require.Equal(t, "u1@test.local", principal.Email)
}

func TestRequireProfileLookupFailureFallsOpen(t *testing.T) {
	// A failing profile store must not reject a valid token: the principal
	// proceeds with the default role.
	gate, verifier := newGate(t, &stubRepo{profileErr: errors.New("store down")})
	token, err := verifier.Issue(auth.Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	invoked := false
	var principal *shared.Principal
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	gate.Require(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, invoked)
	require.Equal(t, shared.DefaultRole, principal.Role)
}

func TestOptionalAnonymous(t *testing.T) {
	gate, _ := newGate(t, &stubRepo{})
	invoked := false
	var principal *shared.Principal

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	gate.Optional(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, invoked, "optional gate proceeds without a token")
	require.Nil(t, principal)
}

func TestOptionalInvalidTokenProceedsAnonymously(t *testing.T) {
	gate, _ := newGate(t, &stubRepo{})
	invoked := false
	var principal *shared.Principal

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	res := httptest.NewRecorder()
	gate.Optional(capturingHandler(&invoked, &principal)).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, invoked)
	require.Nil(t, principal)
}
