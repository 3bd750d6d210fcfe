package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/application"
	"taskhub/internal/identity"
	"taskhub/internal/transport/http/shared"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/requestcontext"
)

// Handler is the HTTP surface for application records. Creation and
// update are admin-only; reads only need a session.
type Handler struct {
	apps   *application.Service
	users  *identity.Service
	logger *slog.Logger
}

func New(apps *application.Service, users *identity.Service, logger *slog.Logger) *Handler {
	return &Handler{apps: apps, users: users, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.handleCreate)
	r.Get("/applications", h.handleList)
	r.Get("/applications/{acronym}", h.handleGet)
	r.Put("/applications/{acronym}", h.handleUpdate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var app application.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	created, err := h.apps.Create(ctx, app)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []application.Application{}
	}
	shared.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	app, err := h.apps.Get(r.Context(), chi.URLParam(r, "acronym"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var app application.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	app.Acronym = chi.URLParam(r, "acronym")

	if err := h.apps.Update(ctx, app); err != nil {
		shared.WriteError(w, err)
		return
	}
	updated, err := h.apps.Get(ctx, app.Acronym)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}
