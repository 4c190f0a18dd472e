package ai_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/ai"
	"github.com/pulseboard/pulseboard/internal/shared"
	_ "github.com/pulseboard/pulseboard/testing"
)

type recordingUsage struct {
	records []ai.UsageRecord
}

func (s *recordingUsage) CountSince(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func (s *recordingUsage) Append(_ context.Context, rec ai.UsageRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func completeRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete", strings.NewReader(body))
	principal := &shared.Principal{ID: "u1", Email: "u1@example.com", Role: "user"}
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
}

func newAIHandler(t *testing.T) (*ai.Handler, *recordingUsage) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := ai.NewResponseCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	usage := &recordingUsage{}
	return ai.NewHandler(ai.EchoCompleter{}, cache, usage, slog.Default()), usage
}

func TestCompleteFreshThenCached(t *testing.T) {
	h, usage := newAIHandler(t)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(`{"message": "summarize the sprint", "workspace_id": "ws1"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		Response string `json:"response"`
		Cached   bool   `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.Equal(t, "summarize the sprint", first.Response)
	require.False(t, first.Cached)

	rec = httptest.NewRecorder()
	h.Complete(rec, completeRequest(`{"message": "summarize the sprint", "workspace_id": "ws1"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		Response string `json:"response"`
		Cached   bool   `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, first.Response, second.Response)
	require.True(t, second.Cached)

	// Both calls are logged; the cache hit is marked as such.
	require.Len(t, usage.records, 2)
	require.False(t, usage.records[0].Cached)
	require.True(t, usage.records[1].Cached)
	require.Equal(t, "ws1", usage.records[0].WorkspaceID)
	require.Equal(t, "u1", usage.records[0].UserID)
	require.Equal(t, ai.PromptHash("summarize the sprint"), usage.records[0].PromptHash)
}

func TestCompleteMasksPIIOutbound(t *testing.T) {
	h, _ := newAIHandler(t)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(`{"message": "email bob@example.com about this", "workspace_id": "ws1"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	// EchoCompleter returns the outbound prompt, which must be masked.
	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "email [EMAIL] about this", body.Response)
}

func TestCompleteLegacyGroupID(t *testing.T) {
	h, usage := newAIHandler(t)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(`{"prompt": "hello", "group_id": "ws9"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, usage.records, 1)
	require.Equal(t, "ws9", usage.records[0].WorkspaceID)
}

func TestCompleteRequiresPrompt(t *testing.T) {
	h, _ := newAIHandler(t)

	rec := httptest.NewRecorder()
	h.Complete(rec, completeRequest(`{"workspace_id": "ws1"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteRequiresPrincipal(t *testing.T) {
	h, _ := newAIHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete", strings.NewReader(`{"message": "hi"}`))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateContentMiddlewareBlocksInjection(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := ai.ValidateContentMiddleware(0)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete",
		strings.NewReader(`{"message": "1; DROP TABLE users"}`))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateContentMiddlewareRestoresBody(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = body["message"]
		w.WriteHeader(http.StatusOK)
	})
	mw := ai.ValidateContentMiddleware(0)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete",
		strings.NewReader(`{"message": "plain request"}`))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "plain request", seen)
}
