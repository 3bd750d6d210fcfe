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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/application"
	"taskhub/internal/identity"
	"taskhub/pkg/requestcontext"
)

func newTestRouter(t *testing.T) (chi.Router, *application.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := identity.NewService(identity.NewInMemoryStore(), logger)
	ctx := context.Background()
	require.NoError(t, users.CreateGroup(ctx, identity.AdminGroup))
	_, err := users.CreateUser(ctx, identity.CreateUserInput{
		Username: "root",
		Password: "passw0rd!",
		Groups:   []string{identity.AdminGroup},
	})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, identity.CreateUserInput{Username: "plain", Password: "passw0rd!"})
	require.NoError(t, err)

	apps := application.NewService(application.NewInMemoryStore(), logger)
	r := chi.NewRouter()
	New(apps, users, logger).Register(r)
	return r, apps
}

func do(r chi.Router, method, path, actor string, body any) *httptest.ResponseRecorder {
	var payload io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		payload = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, payload)
	if actor != "" {
		req = req.WithContext(requestcontext.WithUsername(req.Context(), actor))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func demoApp() application.Application {
	return application.Application{
		Acronym:      "DEMO",
		StartDate:    "01-01-2026",
		EndDate:      "31-12-2026",
		PermitCreate: "pm",
	}
}

func TestCreateRequiresAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/applications", "plain", demoApp())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/applications", "root", demoApp())
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetAndList(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/applications", "root", demoApp()).Code)

	w := do(r, http.MethodGet, "/applications/DEMO", "plain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var app application.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.Equal(t, "DEMO", app.Acronym)

	w = do(r, http.MethodGet, "/applications/NOPE", "plain", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/applications", "plain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var apps []application.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	assert.Len(t, apps, 1)
}

func TestUpdateKeepsCounter(t *testing.T) {
	r, apps := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/applications", "root", demoApp()).Code)

	updated := demoApp()
	updated.Description = "updated"
	updated.RNumber = 99
	w := do(r, http.MethodPut, "/applications/DEMO", "root", updated)
	require.Equal(t, http.StatusOK, w.Code)

	app, err := apps.Get(context.Background(), "DEMO")
	require.NoError(t, err)
	assert.Equal(t, "updated", app.Description)
	assert.Zero(t, app.RNumber)
}
