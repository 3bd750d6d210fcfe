package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/identity"
	"taskhub/pkg/requestcontext"
)

type stubIssuer struct {
	token string
	err   error
}

func (s *stubIssuer) Generate(username, clientIP, userAgent string) (string, error) {
	return s.token, s.err
}

func newTestHandler(t *testing.T) (*identity.Service, chi.Router) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := identity.NewService(identity.NewInMemoryStore(), logger)

	h := New(users, &stubIssuer{token: "signed-token"}, "taskhub_token", time.Hour, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.Register(r)
	return users, r
}

func seedAdmin(t *testing.T, users *identity.Service) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, users.CreateGroup(ctx, identity.AdminGroup))
	_, err := users.CreateUser(ctx, identity.CreateUserInput{
		Username: "root",
		Password: "passw0rd!",
		Groups:   []string{identity.AdminGroup},
	})
	require.NoError(t, err)
}

func asUser(req *http.Request, username string) *http.Request {
	return req.WithContext(requestcontext.WithUsername(req.Context(), username))
}

func TestLoginSetsCookieAndReturnsToken(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)

	body, _ := json.Marshal(loginRequest{Username: "root", Password: "passw0rd!"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp["token"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "taskhub_token", cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)

	body, _ := json.Marshal(loginRequest{Username: "root", Password: "wrong-pw1!"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogoutExpiresCookie(t *testing.T) {
	_, r := newTestHandler(t)

	req := asUser(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "root")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)

	req := asUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "root")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user identity.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "root", user.Username)
	assert.NotContains(t, w.Body.String(), "passwordHash")
}

func TestUserAdminRequiresAdminGroup(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)
	_, err := users.CreateUser(context.Background(), identity.CreateUserInput{
		Username: "plain",
		Password: "passw0rd!",
	})
	require.NoError(t, err)

	body, _ := json.Marshal(identity.CreateUserInput{Username: "new", Password: "passw0rd!"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)), "plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = asUser(httptest.NewRequest(http.MethodGet, "/users", nil), "plain")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCreatesAndUpdatesUser(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)
	require.NoError(t, users.CreateGroup(context.Background(), "dev"))

	body, _ := json.Marshal(identity.CreateUserInput{
		Username: "bob",
		Password: "passw0rd!",
		Email:    "bob@example.com",
	})
	req := asUser(httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)), "root")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	inactive := false
	update, _ := json.Marshal(updateUserRequest{
		Email:  ptr("new@example.com"),
		Active: &inactive,
		Groups: []string{"dev"},
	})
	req = asUser(httptest.NewRequest(http.MethodPatch, "/users/bob", bytes.NewReader(update)), "root")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	user, err := users.GetUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"dev"}, user.Groups)
}

func TestGroupRoutes(t *testing.T) {
	users, r := newTestHandler(t)
	seedAdmin(t, users)

	body, _ := json.Marshal(createGroupRequest{Name: "dev"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/groups", bytes.NewReader(body)), "root")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = asUser(httptest.NewRequest(http.MethodGet, "/groups", nil), "root")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var groups []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	assert.Contains(t, groups, "dev")
	assert.Contains(t, groups, identity.AdminGroup)
}

func ptr[T any](v T) *T { return &v }
