package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/task"
	"taskhub/internal/transport/http/shared"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/requestcontext"
)

// Service defines the task operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, in task.CreateInput) (task.Task, error)
	Promote(ctx context.Context, taskID, actor string, from, to task.State) (task.Task, error)
	Demote(ctx context.Context, taskID, actor string, from, to task.State) (task.Task, error)
	UpdateNotes(ctx context.Context, taskID, actor, text string, currState task.State) error
	UpdatePlan(ctx context.Context, taskID, actor, prevPlan, newPlan string, currState task.State) error
	Get(ctx context.Context, taskID string) (task.Task, error)
}

// Lister serves board listings. It is separate from Service so the
// cached reader can be swapped in without touching mutations.
type Lister interface {
	ListByState(ctx context.Context, appAcronym string, state task.State) ([]task.Summary, error)
	ListAll(ctx context.Context, appAcronym string) ([]task.Summary, error)
}

// Handler is the HTTP surface for task operations.
type Handler struct {
	tasks  Service
	boards Lister
	logger *slog.Logger
}

func New(tasks Service, boards Lister, logger *slog.Logger) *Handler {
	return &Handler{tasks: tasks, boards: boards, logger: logger}
}

// Register mounts the task routes. Authentication is applied by the
// parent router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tasks", h.handleCreate)
	r.Get("/tasks/{taskID}", h.handleGet)
	r.Post("/tasks/{taskID}/promote", h.handlePromote)
	r.Post("/tasks/{taskID}/demote", h.handleDemote)
	r.Patch("/tasks/{taskID}/notes", h.handleUpdateNotes)
	r.Patch("/tasks/{taskID}/plan", h.handleUpdatePlan)
	r.Get("/applications/{acronym}/tasks", h.handleListByState)
}

type createRequest struct {
	AppAcronym  string `json:"appAcronym"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Plan        string `json:"plan"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Username(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	created, err := h.tasks.Create(ctx, task.CreateInput{
		AppAcronym:  req.AppAcronym,
		Name:        req.Name,
		Description: req.Description,
		Notes:       req.Notes,
		Plan:        req.Plan,
		Actor:       actor,
	})
	if err != nil {
		h.logError(ctx, "create task failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	got, err := h.tasks.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, got)
}

type transitionRequest struct {
	FromState string `json:"fromState"`
	ToState   string `json:"toState"`
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.tasks.Promote)
}

func (h *Handler) handleDemote(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.tasks.Demote)
}

func (h *Handler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, taskID, actor string, from, to task.State) (task.Task, error),
) {
	ctx := r.Context()
	actor := requestcontext.Username(ctx)
	taskID := chi.URLParam(r, "taskID")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	from, ok := task.ParseState(req.FromState)
	if !ok {
		shared.WriteError(w, dErrors.NewValidation(map[string]string{"fromState": "unknown state"}))
		return
	}
	to, ok := task.ParseState(req.ToState)
	if !ok {
		shared.WriteError(w, dErrors.NewValidation(map[string]string{"toState": "unknown state"}))
		return
	}

	updated, err := op(ctx, taskID, actor, from, to)
	if err != nil {
		h.logError(ctx, "task transition failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

type updateNotesRequest struct {
	Notes     string `json:"notes"`
	CurrState string `json:"currState"`
}

func (h *Handler) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Username(ctx)
	taskID := chi.URLParam(r, "taskID")

	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	currState, ok := task.ParseState(req.CurrState)
	if !ok {
		shared.WriteError(w, dErrors.NewValidation(map[string]string{"currState": "unknown state"}))
		return
	}

	if err := h.tasks.UpdateNotes(ctx, taskID, actor, req.Notes, currState); err != nil {
		h.logError(ctx, "update task notes failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

type updatePlanRequest struct {
	PrevPlan  string `json:"prevPlan"`
	NewPlan   string `json:"newPlan"`
	CurrState string `json:"currState"`
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Username(ctx)
	taskID := chi.URLParam(r, "taskID")

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	currState, ok := task.ParseState(req.CurrState)
	if !ok {
		shared.WriteError(w, dErrors.NewValidation(map[string]string{"currState": "unknown state"}))
		return
	}

	if err := h.tasks.UpdatePlan(ctx, taskID, actor, req.PrevPlan, req.NewPlan, currState); err != nil {
		h.logError(ctx, "update task plan failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListByState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acronym := chi.URLParam(r, "acronym")

	var summaries []task.Summary
	var err error
	if raw := r.URL.Query().Get("state"); raw == "" {
		// No state filter means the whole board.
		summaries, err = h.boards.ListAll(ctx, acronym)
	} else {
		state, ok := task.ParseState(raw)
		if !ok {
			shared.WriteError(w, dErrors.NewValidation(map[string]string{"state": "unknown state"}))
			return
		}
		summaries, err = h.boards.ListByState(ctx, acronym, state)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if summaries == nil {
		summaries = []task.Summary{}
	}
	shared.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
}
