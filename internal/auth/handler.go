package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// Handler exposes the token issuance endpoint for self-hosted deployments.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the auth handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// IssueToken handles POST /api/auth/token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "email and password required")
		return
	}
	token, ttl, err := h.service.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "token issuance failed")
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}
