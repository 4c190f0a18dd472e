package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pulseboard/pulseboard/internal/ai"
	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/authz"
	"github.com/pulseboard/pulseboard/internal/observability"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/ratelimit"
	"github.com/pulseboard/pulseboard/internal/records"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/workspace"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Gate           auth.Gate
	AuthHandler    *auth.Handler
	Workspace      workspace.Authorizer
	WorkspaceAdmin *workspace.Handler
	Policies       *ratelimit.Policies
	QuotaGuard     *ai.QuotaGuard
	AIHandler      *ai.Handler
	RecordsHandler *records.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Pulseboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(params.Policies.General.Middleware).Group(func(r chi.Router) {
			r.With(params.Policies.Auth.Middleware).Post("/auth/token", params.AuthHandler.IssueToken)

			r.Group(func(r chi.Router) {
				r.Use(params.Gate.Require)

				r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
					principal := shared.PrincipalFromContext(r.Context())
					httpx.JSON(w, http.StatusOK, map[string]string{
						"id":    principal.ID,
						"email": principal.Email,
						"role":  principal.Role,
					})
				})

				r.With(params.Policies.Strict.Middleware, authz.RequireRole("admin", "owner", "developer")).
					Post("/records/batch", params.RecordsHandler.BatchUpdate)

				r.Route("/ai", func(r chi.Router) {
					r.Use(params.Policies.AI.Middleware)
					r.Use(ai.ValidateContentMiddleware(params.Config.AIMaxPromptChars))
					r.Use(params.QuotaGuard.Middleware)
					r.Post("/complete", params.AIHandler.Complete)
				})

				r.Route("/workspaces/{workspaceID}", func(r chi.Router) {
					r.Use(params.Policies.Workspace.Middleware)

					r.With(params.Workspace.RequireAdmin).
						Get("/members", params.WorkspaceAdmin.ListMembers)

					r.Group(func(r chi.Router) {
						r.Use(params.Workspace.RequireMember)
						r.Patch("/records/{recordID}", params.RecordsHandler.Update)
						r.Get("/records/{recordID}/conflict", params.RecordsHandler.CheckConflict)
					})
				})
			})
		})
	})

	return r
}
