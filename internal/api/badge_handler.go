package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/pkg/apperr"
	"github.com/oakward/identity/pkg/binder"
)

// BadgeManager is the badge surface. Implemented by badge.Service.
type BadgeManager interface {
	List(ctx context.Context, page pagination.Params) ([]badge.Badge, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*badge.Badge, error)
	Create(ctx context.Context, actor *auth.User, params badge.BadgeParams) (*badge.Badge, error)
	Update(ctx context.Context, actor *auth.User, id uuid.UUID, params badge.BadgeParams) (*badge.Badge, error)
	Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error
	Award(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) (*badge.UserBadge, error)
	RemoveAward(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) error
	UserBadges(ctx context.Context, userID uuid.UUID) ([]badge.Badge, error)
	Has(ctx context.Context, userID, badgeID uuid.UUID) (bool, error)
}

// BadgeHandler serves the /badges routes. Reads are public; mutations require
// an authenticated, verified admin.
type BadgeHandler struct {
	badges   BadgeManager
	sessions SessionManager
	log      *slog.Logger
}

// NewBadgeHandler creates the badge handler.
func NewBadgeHandler(badges BadgeManager, sessions SessionManager, log *slog.Logger) *BadgeHandler {
	return &BadgeHandler{badges: badges, sessions: sessions, log: log}
}

// Routes returns the /badges subtree.
func (h *BadgeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/users/{userID}", h.UserBadges)
	r.Get("/users/{userID}/has/{id}", h.Check)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.sessions, h.log))
		r.Use(RequireVerified(h.log))
		r.Use(RequireAdmin(h.log))

		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/award", h.Award)
		r.Delete("/award", h.RemoveAward)
	})

	return r
}

func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageParams(r)
	badges, total, err := h.badges.List(r.Context(), page)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondList(w, badges, total, page)
}

func (h *BadgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	b, err := h.badges.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, b)
}

type badgeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url,omitempty"`
}

func (h *BadgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req badgeRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	b, err := h.badges.Create(r.Context(), actor, badge.BadgeParams{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, b)
}

func (h *BadgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	var req badgeRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	b, err := h.badges.Update(r.Context(), actor, id, badge.BadgeParams{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, b)
}

func (h *BadgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	if err := h.badges.Delete(r.Context(), actor, id); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "badge deleted")
}

type awardRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	BadgeID uuid.UUID `json:"badge_id"`
}

func (h *BadgeHandler) Award(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req awardRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	award, err := h.badges.Award(r.Context(), actor, req.UserID, req.BadgeID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, award)
}

func (h *BadgeHandler) RemoveAward(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req awardRequest
	if err := binder.JSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.badges.RemoveAward(r.Context(), actor, req.UserID, req.BadgeID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "award removed")
}

func (h *BadgeHandler) UserBadges(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	badges, err := h.badges.UserBadges(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, badges)
}

func (h *BadgeHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}
	badgeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, apperr.ErrBadRequest)
		return
	}

	has, err := h.badges.Has(r.Context(), userID, badgeID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"has_badge": has})
}
