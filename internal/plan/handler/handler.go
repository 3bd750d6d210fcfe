package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/identity"
	"taskhub/internal/plan"
	"taskhub/internal/transport/http/shared"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/requestcontext"
)

// Handler is the HTTP surface for plans. Plans are created by project
// managers; there is no update or delete, tasks just repoint.
type Handler struct {
	plans  *plan.Service
	users  *identity.Service
	logger *slog.Logger
}

func New(plans *plan.Service, users *identity.Service, logger *slog.Logger) *Handler {
	return &Handler{plans: plans, users: users, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{acronym}/plans", h.handleCreate)
	r.Get("/applications/{acronym}/plans", h.handleList)
	r.Get("/applications/{acronym}/plans/{mvpName}", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var p plan.Plan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	p.AppAcronym = chi.URLParam(r, "acronym")

	created, err := h.plans.Create(ctx, p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListByApplication(r.Context(), chi.URLParam(r, "acronym"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	shared.WriteJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.Get(r.Context(), chi.URLParam(r, "acronym"), chi.URLParam(r, "mvpName"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}
