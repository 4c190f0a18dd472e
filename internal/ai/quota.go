package ai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/workspace"
)

// QuotaGuard enforces daily and monthly AI request ceilings per workspace,
// counted from the persistent usage log. Distinct from the in-memory rate
// limiter: longer windows, business-rule driven.
type QuotaGuard struct {
	Store        UsageStore
	DailyLimit   int64
	MonthlyLimit int64
	Logger       *slog.Logger

	now func() time.Time
}

// NewQuotaGuard constructs a quota guard with the configured limits.
func NewQuotaGuard(store UsageStore, dailyLimit, monthlyLimit int64, logger *slog.Logger) *QuotaGuard {
	return &QuotaGuard{
		Store:        store,
		DailyLimit:   dailyLimit,
		MonthlyLimit: monthlyLimit,
		Logger:       logger,
		now:          time.Now,
	}
}

// Rejection describes a quota refusal.
type Rejection struct {
	Scope   string
	Used    int64
	Limit   int64
	ResetAt time.Time
}

// Check computes current usage for the workspace and reports a rejection
// when a ceiling is reached. A failing count query is treated as zero
// usage and logged: the guard deliberately fails open so a store outage
// does not take the AI surface down with it.
func (g *QuotaGuard) Check(ctx context.Context, workspaceID string) (shared.QuotaUsage, *Rejection) {
	now := g.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	daily := g.count(ctx, workspaceID, dayStart)
	if daily >= g.DailyLimit {
		return shared.QuotaUsage{Daily: daily}, &Rejection{
			Scope:   "daily",
			Used:    daily,
			Limit:   g.DailyLimit,
			ResetAt: dayStart.AddDate(0, 0, 1),
		}
	}

	monthly := g.count(ctx, workspaceID, monthStart)
	if monthly >= g.MonthlyLimit {
		return shared.QuotaUsage{Daily: daily, Monthly: monthly}, &Rejection{
			Scope:   "monthly",
			Used:    monthly,
			Limit:   g.MonthlyLimit,
			ResetAt: monthStart.AddDate(0, 1, 0),
		}
	}

	return shared.QuotaUsage{
		Daily:            daily,
		Monthly:          monthly,
		DailyRemaining:   g.DailyLimit - daily,
		MonthlyRemaining: g.MonthlyLimit - monthly,
	}, nil
}

func (g *QuotaGuard) count(ctx context.Context, workspaceID string, since time.Time) int64 {
	count, err := g.Store.CountSince(ctx, workspaceID, since)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("usage count failed, assuming zero",
				slog.String("workspace_id", workspaceID), slog.Any("error", err))
		}
		return 0
	}
	return count
}

// Middleware gates AI endpoints on the workspace quota and attaches the
// usage snapshot to the request context on success.
func (g *QuotaGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.Error(w, http.StatusUnauthorized, httpx.KindUnauthorized, "authentication required")
			return
		}
		workspaceID := workspace.RequestWorkspaceID(r)
		if workspaceID == "" {
			httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "Workspace ID required")
			return
		}
		usage, rejection := g.Check(r.Context(), workspaceID)
		if rejection != nil {
			httpx.ErrorWith(w, http.StatusTooManyRequests, httpx.KindQuotaExceeded,
				rejection.Scope+" AI quota exceeded", map[string]any{
					"resetAt": rejection.ResetAt.Format(time.RFC3339),
					"usage":   map[string]any{"daily": usage.Daily, "monthly": usage.Monthly},
					"limit":   rejection.Limit,
				})
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithQuotaUsage(r.Context(), &usage)))
	})
}
