package shared

import "context"

// Principal is the authenticated identity derived from a bearer token,
// enriched with the profile role. Lifetime is a single request.
type Principal struct {
	ID    string
	Email string
	Role  string
}

// Membership is a principal's role inside a specific workspace, distinct
// from the principal's global role.
type Membership struct {
	WorkspaceID string
	UserID      string
	Role        string
}

// QuotaUsage is the AI usage snapshot attached by the quota guard.
type QuotaUsage struct {
	Daily            int64 `json:"daily"`
	Monthly          int64 `json:"monthly"`
	DailyRemaining   int64 `json:"dailyRemaining"`
	MonthlyRemaining int64 `json:"monthlyRemaining"`
}

type principalContextKey struct{}
type membershipContextKey struct{}
type quotaUsageContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// ContextWithMembership stores the workspace membership in context.
func ContextWithMembership(ctx context.Context, m *Membership) context.Context {
	return context.WithValue(ctx, membershipContextKey{}, m)
}

// MembershipFromContext extracts the workspace membership from context.
func MembershipFromContext(ctx context.Context) *Membership {
	m, _ := ctx.Value(membershipContextKey{}).(*Membership)
	return m
}

// ContextWithQuotaUsage stores the AI usage snapshot in context.
func ContextWithQuotaUsage(ctx context.Context, u *QuotaUsage) context.Context {
	return context.WithValue(ctx, quotaUsageContextKey{}, u)
}

// QuotaUsageFromContext extracts the AI usage snapshot from context.
func QuotaUsageFromContext(ctx context.Context) *QuotaUsage {
	u, _ := ctx.Value(quotaUsageContextKey{}).(*QuotaUsage)
	return u
}
