package workspace

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// Authorizer gates requests on workspace membership.
type Authorizer struct {
	Repo   Repository
	Logger *slog.Logger
}

// RequireMember ensures the principal belongs to the requested workspace
// and attaches the membership to the request context. Membership absence
// and lookup failure produce the same 403 so callers cannot probe which
// workspaces exist.
func (a Authorizer) RequireMember(next http.Handler) http.Handler {
	return a.require(next, false)
}

// RequireAdmin performs the membership lookup and additionally requires an
// admin or owner membership role.
func (a Authorizer) RequireAdmin(next http.Handler) http.Handler {
	return a.require(next, true)
}

func (a Authorizer) require(next http.Handler, admin bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "authentication required")
			return
		}
		workspaceID := RequestWorkspaceID(r)
		if workspaceID == "" {
			httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "Workspace ID required")
			return
		}
		membership, err := a.Repo.FindMembership(r.Context(), workspaceID, principal.ID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) && a.Logger != nil {
				a.Logger.Error("membership lookup failed",
					slog.String("workspace_id", workspaceID),
					slog.String("user_id", principal.ID),
					slog.Any("error", err))
			}
			httpx.Error(w, http.StatusForbidden, httpx.KindForbidden, "not a member of this workspace")
			return
		}
		if admin && !isElevated(membership.Role) {
			httpx.ErrorWith(w, http.StatusForbidden, httpx.KindForbidden, "workspace admin required",
				map[string]any{"role": membership.Role})
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithMembership(r.Context(), membership)))
	})
}

func isElevated(role string) bool {
	switch strings.ToLower(role) {
	case shared.RoleAdmin, shared.RoleOwner:
		return true
	}
	return false
}
