package workspace

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
)

// Accepted body field names for the workspace identifier. group_id is a
// legacy alias kept for older clients.
const (
	FieldWorkspaceID = "workspace_id"
	FieldGroupID     = "group_id"
)

// RequestWorkspaceID extracts the workspace identifier from the request:
// the URL path parameter first, then the body fields in priority order.
func RequestWorkspaceID(r *http.Request) string {
	if id := chi.URLParam(r, "workspaceID"); id != "" {
		return id
	}
	return httpx.PeekBodyField(r, FieldWorkspaceID, FieldGroupID)
}
