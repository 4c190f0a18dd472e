package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// KeyFunc selects the identity a request is limited by.
type KeyFunc func(*http.Request) string

// KeyByIP keys by caller IP.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// KeyByPrincipalOrIP prefers the authenticated principal id and falls back
// to the caller IP for anonymous requests.
func KeyByPrincipalOrIP(r *http.Request) string {
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil && principal.ID != "" {
		return "user:" + principal.ID
	}
	return KeyByIP(r)
}

// Policy binds one limiter engine to a key selector and exposes it as
// middleware.
type Policy struct {
	Name    string
	limiter *Limiter
	keyFn   KeyFunc
}

// NewPolicy constructs a named policy.
func NewPolicy(name string, cfg Config, keyFn KeyFunc) *Policy {
	return &Policy{Name: name, limiter: New(cfg), keyFn: keyFn}
}

// Limiter exposes the underlying engine, primarily for the sweeper.
func (p *Policy) Limiter() *Limiter {
	return p.limiter
}

// Middleware enforces the policy. Accepted requests carry X-RateLimit-*
// headers; rejections answer 429 with Retry-After.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := p.limiter.Consume(p.keyFn(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.limiter.Points()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetIn).Unix(), 10))
		if !res.Allowed {
			retryAfter := int64(res.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			httpx.ErrorWith(w, http.StatusTooManyRequests, httpx.KindRateLimited, "too many requests",
				map[string]any{"retryAfterMs": res.RetryAfter.Milliseconds()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Policies groups the named limiter policies of the API surface.
type Policies struct {
	General   *Policy
	Strict    *Policy
	Auth      *Policy
	AI        *Policy
	Upload    *Policy
	Workspace *Policy
}

// DefaultPolicies constructs the standard policy set:
// general API, strict endpoints, auth attempts by IP, AI and upload
// requests by principal-or-IP, and a per-workspace limit.
func DefaultPolicies(workspaceKey KeyFunc) *Policies {
	return &Policies{
		General:   NewPolicy("general", Config{Points: 100, Window: 15 * time.Minute}, KeyByPrincipalOrIP),
		Strict:    NewPolicy("strict", Config{Points: 10, Window: time.Minute, Block: time.Minute}, KeyByPrincipalOrIP),
		Auth:      NewPolicy("auth", Config{Points: 5, Window: 5 * time.Minute, Block: 15 * time.Minute}, KeyByIP),
		AI:        NewPolicy("ai", Config{Points: 100, Window: 24 * time.Hour}, KeyByPrincipalOrIP),
		Upload:    NewPolicy("upload", Config{Points: 20, Window: time.Hour}, KeyByPrincipalOrIP),
		Workspace: NewPolicy("workspace", Config{Points: 100, Window: 15 * time.Minute}, workspaceKey),
	}
}

// Limiters returns every engine in the set for sweeping.
func (p *Policies) Limiters() []*Limiter {
	return []*Limiter{
		p.General.limiter,
		p.Strict.limiter,
		p.Auth.limiter,
		p.AI.limiter,
		p.Upload.limiter,
		p.Workspace.limiter,
	}
}

// Sweeper builds the background sweeper for the policy set.
func (p *Policies) Sweeper(logger *slog.Logger) *Sweeper {
	return NewSweeper(p.Limiters(), SweepInterval, logger)
}
