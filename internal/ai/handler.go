package ai

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/workspace"
)

// Handler serves the AI completion endpoint.
type Handler struct {
	completer Completer
	cache     *ResponseCache
	usage     UsageStore
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler constructs the AI handler.
func NewHandler(completer Completer, cache *ResponseCache, usage UsageStore, logger *slog.Logger) *Handler {
	return &Handler{
		completer: completer,
		cache:     cache,
		usage:     usage,
		validate:  validator.New(),
		logger:    logger,
	}
}

type completionResponse struct {
	Response string             `json:"response"`
	Cached   bool               `json:"cached"`
	Usage    *shared.QuotaUsage `json:"usage,omitempty"`
}

// Complete handles POST /api/ai/complete. The gate, rate limit, content
// validation and quota stages have already run by the time this executes.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "authentication required")
		return
	}

	var req CompletionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "invalid request fields")
		return
	}
	prompt := req.Text()
	if prompt == "" {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "message or prompt required")
		return
	}

	workspaceID := req.WorkspaceID
	if workspaceID == "" {
		workspaceID = req.GroupID
	}
	if workspaceID == "" {
		workspaceID = workspace.RequestWorkspaceID(r)
	}

	start := time.Now()
	if text, hit, err := h.cache.Get(r.Context(), prompt); err == nil && hit {
		h.record(r, principal, workspaceID, prompt, text, "cache", 0, start, true)
		httpx.JSON(w, http.StatusOK, completionResponse{
			Response: text,
			Cached:   true,
			Usage:    shared.QuotaUsageFromContext(r.Context()),
		})
		return
	} else if err != nil {
		h.logger.Warn("response cache lookup failed", slog.Any("error", err))
	}

	// PII is masked on the outbound prompt only; stored logs keep raw
	// lengths of the original text.
	completion, err := h.completer.Complete(r.Context(), MaskPII(prompt))
	if err != nil {
		h.logger.Error("completion failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "completion failed")
		return
	}

	if err := h.cache.Set(r.Context(), prompt, completion.Text); err != nil {
		h.logger.Warn("response cache store failed", slog.Any("error", err))
	}
	h.record(r, principal, workspaceID, prompt, completion.Text, completion.Model, completion.TokensUsed, start, false)

	httpx.JSON(w, http.StatusOK, completionResponse{
		Response: completion.Text,
		Usage:    shared.QuotaUsageFromContext(r.Context()),
	})
}

func (h *Handler) record(r *http.Request, principal *shared.Principal, workspaceID, prompt, response, model string, tokens int, start time.Time, cached bool) {
	rec := UsageRecord{
		ID:             uuid.NewString(),
		UserID:         principal.ID,
		WorkspaceID:    workspaceID,
		PromptHash:     PromptHash(prompt),
		PromptLength:   len(prompt),
		ResponseLength: len(response),
		Model:          model,
		TokensUsed:     tokens,
		DurationMS:     time.Since(start).Milliseconds(),
		Cached:         cached,
		CreatedAt:      time.Now(),
	}
	if err := h.usage.Append(r.Context(), rec); err != nil {
		h.logger.Error("usage append failed", slog.Any("error", err))
	}
}

// ValidateContentMiddleware rejects over-long or malicious prompts before
// the quota guard runs. The body is peeked and restored for downstream
// stages. maxChars <= 0 falls back to the default cap.
func ValidateContentMiddleware(maxChars int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			text := httpx.PeekBodyField(r, "message", "prompt")
			if text != "" {
				if err := ValidateContentMax(text, maxChars); err != nil {
					if errors.Is(err, ErrContentTooLong) {
						httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, err.Error())
						return
					}
					httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "content rejected by safety filters")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
