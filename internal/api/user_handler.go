package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/internal/user"
	"github.com/oakward/identity/pkg/apperr"
	"github.com/oakward/identity/pkg/binder"
)

// UserManager is the user management surface. Implemented by user.Service.
type UserManager interface {
	List(ctx context.Context, actor *auth.User, page pagination.Params) ([]auth.User, int64, error)
	Create(ctx context.Context, actor *auth.User, params user.CreateParams) (*auth.User, error)
	Get(ctx context.Context, id uuid.UUID) (*auth.User, error)
	Update(ctx context.Context, actor *auth.User, targetID uuid.UUID, params user.UpdateParams) (*auth.User, error)
	Delete(ctx context.Context, actor *auth.User, targetID uuid.UUID) error
}

// UserHandler serves the /users routes. All routes require an authenticated,
// verified user; role checks live in the service.
type UserHandler struct {
	users     UserManager
	passwords PasswordAuthenticator
	sessions  SessionManager
	log       *slog.Logger
}

// NewUserHandler creates the user handler.
func NewUserHandler(users UserManager, passwords PasswordAuthenticator, sessions SessionManager, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, passwords: passwords, sessions: sessions, log: log}
}

// Routes returns the /users subtree.
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireAuth(h.sessions, h.log))
	r.Use(RequireVerified(h.log))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/me", h.Me)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/password", h.ChangePassword)

	return r
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	page := pageParams(r)

	users, total, err := h.users.List(r.Context(), actor, page)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondList(w, users, total, page)
}

type createUserRequest struct {
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Password string    `json:"password"`
	FullName string    `json:"full_name,omitempty"`
	Role     auth.Role `json:"role,omitempty"`
	Verified bool      `json:"verified,omitempty"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req createUserRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	created, err := h.users.Create(r.Context(), actor, user.CreateParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		Verified: req.Verified,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, r, h.log, auth.ErrInvalidCredentials)
		return
	}
	respondData(w, http.StatusOK, actor)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

type updateUserRequest struct {
	Username  *string    `json:"username,omitempty"`
	FullName  *string    `json:"full_name,omitempty"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
	Role      *auth.Role `json:"role,omitempty"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	var req updateUserRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	updated, err := h.users.Update(r.Context(), actor, id, user.UpdateParams{
		Username:  req.Username,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		IsActive:  req.IsActive,
		Role:      req.Role,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "user deleted")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	var req changePasswordRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.passwords.ChangePassword(r.Context(), auth.ChangePasswordParams{
		ActorID:         actor.ID,
		ActorRole:       actor.Role,
		TargetID:        id,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "password changed")
}
