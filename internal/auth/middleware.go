package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

const bearerPrefix = "Bearer "

// Gate is the request-level authentication middleware. Require rejects
// requests without a valid bearer token; Optional lets them through
// anonymously.
type Gate struct {
	Service *Service
	Logger  *slog.Logger
}

// Require authenticates the request or terminates it with 401. The
// downstream handler is never invoked on failure.
func (g Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "missing bearer token")
			return
		}
		principal, err := g.Service.Authenticate(r.Context(), token)
		if err != nil {
			g.reject(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// Optional resolves a principal when a valid token is present and proceeds
// anonymously otherwise. Used by endpoints with mixed public/private
// behavior.
func (g Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := g.Service.Authenticate(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func (g Gate) reject(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExpiredToken):
		httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "token expired")
	case errors.Is(err, ErrInvalidToken):
		httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "invalid token")
	default:
		if g.Logger != nil {
			g.Logger.Error("authentication failed", slog.Any("error", err))
		}
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "authentication failed")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}
