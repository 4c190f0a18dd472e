package workspace

import (
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
)

// Handler exposes workspace administration endpoints.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// NewHandler constructs the workspace handler.
func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type memberView struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ListMembers handles GET /api/workspaces/{workspaceID}/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID := RequestWorkspaceID(r)
	members, err := h.repo.ListMembers(r.Context(), workspaceID)
	if err != nil {
		h.logger.Error("list members", slog.String("workspace_id", workspaceID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "failed to list members")
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{UserID: m.UserID, Role: m.Role})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": views})
}
