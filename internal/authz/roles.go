// Package authz contains stateless role checks applied after authentication.
package authz

import (
	"net/http"
	"strings"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// RequireRole ensures the attached principal's global role belongs to the
// allowed set. It performs no I/O: 401 when no principal is attached, 403
// (with the actual role in the body) when the role is not allowed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "authentication required")
				return
			}
			if _, ok := allowed[strings.ToLower(principal.Role)]; !ok {
				httpx.ErrorWith(w, http.StatusForbidden, httpx.KindForbidden, "insufficient role",
					map[string]any{"role": principal.Role})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeRoles(roles []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		normalized[role] = struct{}{}
	}
	return normalized
}
