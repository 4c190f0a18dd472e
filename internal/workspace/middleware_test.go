package workspace_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/workspace"
	_ "github.com/pulseboard/pulseboard/testing"
)

type stubRepo struct {
	membership *shared.Membership
	err        error
}

func (s *stubRepo) FindMembership(ctx context.Context, workspaceID, userID string) (*shared.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.membership == nil {
		return nil, shared.ErrNotFound
	}
	return s.membership, nil
}

func (s *stubRepo) ListMembers(ctx context.Context, workspaceID string) ([]shared.Membership, error) {
	return nil, nil
}

func request(principal *shared.Principal, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, "/", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	return req
}

func TestRequireMemberNoPrincipal(t *testing.T) {
	a := workspace.Authorizer{Repo: &stubRepo{}, Logger: slog.Default()}
	res := httptest.NewRecorder()
	a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, request(nil, `{"workspace_id":"w1"}`))
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireMemberMissingWorkspaceID(t *testing.T) {
	// Valid token, valid membership on file, but no workspace identifier
	// anywhere in the request.
	a := workspace.Authorizer{Repo: &stubRepo{membership: &shared.Membership{Role: "member"}}, Logger: slog.Default()}
	res := httptest.NewRecorder()
	a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"other":"field"}`))

	require.Equal(t, http.StatusBadRequest, res.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "Workspace ID required", body["message"])
}

func TestRequireMemberLegacyGroupIDAlias(t *testing.T) {
	membership := &shared.Membership{WorkspaceID: "w1", UserID: "u1", Role: "member"}
	a := workspace.Authorizer{Repo: &stubRepo{membership: membership}, Logger: slog.Default()}

	var attached *shared.Membership
	res := httptest.NewRecorder()
	a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = shared.MembershipFromContext(r.Context())
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"group_id":"w1"}`))

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, attached)
	require.Equal(t, "member", attached.Role)
}

func TestRequireMemberNotAMember(t *testing.T) {
	a := workspace.Authorizer{Repo: &stubRepo{}, Logger: slog.Default()}
	res := httptest.NewRecorder()
	a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"workspace_id":"w1"}`))

	require.Equal(t, http.StatusForbidden, res.Code)
	require.Contains(t, res.Body.String(), "not a member of this workspace")
}

func TestRequireMemberLookupErrorIndistinguishableFromAbsence(t *testing.T) {
	a := workspace.Authorizer{Repo: &stubRepo{err: errors.New("store down")}, Logger: slog.Default()}
	res := httptest.NewRecorder()
	a.RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"workspace_id":"w1"}`))

	require.Equal(t, http.StatusForbidden, res.Code)
	require.Contains(t, res.Body.String(), "not a member of this workspace")
}

func TestRequireAdminRejectsPlainMember(t *testing.T) {
	membership := &shared.Membership{WorkspaceID: "w1", UserID: "u1", Role: "member"}
	a := workspace.Authorizer{Repo: &stubRepo{membership: membership}, Logger: slog.Default()}
	res := httptest.NewRecorder()
	a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"workspace_id":"w1"}`))

	require.Equal(t, http.StatusForbidden, res.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "member", body["role"])
}

func TestRequireAdminAcceptsOwner(t *testing.T) {
	membership := &shared.Membership{WorkspaceID: "w1", UserID: "u1", Role: "owner"}
	a := workspace.Authorizer{Repo: &stubRepo{membership: membership}, Logger: slog.Default()}
	invoked := false
	res := httptest.NewRecorder()
	a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
	})).ServeHTTP(res, request(&shared.Principal{ID: "u1"}, `{"workspace_id":"w1"}`))

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, invoked)
}

func TestURLParamTakesPriorityOverBody(t *testing.T) {
	var sawWorkspace string
	repo := &capturingRepo{}
	a := workspace.Authorizer{Repo: repo, Logger: slog.Default()}

	r := chi.NewRouter()
	r.With(a.RequireMember).Post("/workspaces/{workspaceID}/x", func(w http.ResponseWriter, r *http.Request) {
		sawWorkspace = shared.MembershipFromContext(r.Context()).WorkspaceID
	})

	req := httptest.NewRequest(http.MethodPost, "/workspaces/from-url/x", strings.NewReader(`{"workspace_id":"from-body"}`))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: "u1"}))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "from-url", repo.lastWorkspaceID)
	require.Equal(t, "from-url", sawWorkspace)
}

type capturingRepo struct {
	lastWorkspaceID string
}

func (c *capturingRepo) FindMembership(ctx context.Context, workspaceID, userID string) (*shared.Membership, error) {
	c.lastWorkspaceID = workspaceID
	return &shared.Membership{WorkspaceID: workspaceID, UserID: userID, Role: "member"}, nil
}

func (c *capturingRepo) ListMembers(ctx context.Context, workspaceID string) ([]shared.Membership, error) {
	return nil, nil
}
