package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/identity"
	"taskhub/internal/platform/middleware"
	"taskhub/internal/transport/http/shared"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/requestcontext"
)

// TokenIssuer mints a signed session token bound to the caller's
// network fingerprint.
type TokenIssuer interface {
	Generate(username, clientIP, userAgent string) (string, error)
}

// Handler is the HTTP surface for login and user administration.
type Handler struct {
	users      *identity.Service
	tokens     TokenIssuer
	cookieName string
	tokenTTL   time.Duration
	logger     *slog.Logger
}

func New(users *identity.Service, tokens TokenIssuer, cookieName string, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		users:      users,
		tokens:     tokens,
		cookieName: cookieName,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// RegisterPublic mounts the unauthenticated login route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// Register mounts the authenticated routes. Admin-only checks run in
// the handlers, not the router, so the 403 carries a domain error.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.handleMe)

	r.Post("/users", h.handleCreateUser)
	r.Get("/users", h.handleListUsers)
	r.Patch("/users/{username}", h.handleUpdateUser)
	r.Post("/groups", h.handleCreateGroup)
	r.Get("/groups", h.handleListGroups)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	user, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected", "username", req.Username, "error", err)
		shared.WriteError(w, err)
		return
	}

	token, err := h.tokens.Generate(user.Username, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue token"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	shared.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.GetUser(ctx, requestcontext.Username(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var input identity.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	user, err := h.users.CreateUser(ctx, input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, users)
}

type updateUserRequest struct {
	Email    *string  `json:"email,omitempty"`
	Password *string  `json:"password,omitempty"`
	Active   *bool    `json:"active,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	username := chi.URLParam(r, "username")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	if req.Email != nil {
		if err := h.users.UpdateEmail(ctx, username, *req.Email); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	if req.Password != nil {
		if err := h.users.UpdatePassword(ctx, username, *req.Password); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	if req.Active != nil {
		if err := h.users.SetActive(ctx, username, *req.Active); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	if req.Groups != nil {
		if err := h.users.SetGroups(ctx, username, req.Groups); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.RequireAdmin(ctx, requestcontext.Username(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if err := h.users.CreateGroup(ctx, req.Name); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groups, err := h.users.ListGroups(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if groups == nil {
		groups = []string{}
	}
	shared.WriteJSON(w, http.StatusOK, groups)
}
