package badge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/pkg/sanitizer"
	"github.com/oakward/identity/pkg/validator"
)

const (
	nameMinLen = 2
	nameMaxLen = 64
	descMaxLen = 500
)

// Storage defines badge persistence.
type Storage interface {
	CreateBadge(ctx context.Context, b *Badge) error
	GetBadgeByID(ctx context.Context, id uuid.UUID) (*Badge, error)
	ListBadges(ctx context.Context, offset, limit int) ([]Badge, int64, error)
	UpdateBadge(ctx context.Context, b *Badge) error
	DeleteBadge(ctx context.Context, id uuid.UUID) error

	AwardBadge(ctx context.Context, award *UserBadge) error
	RemoveAward(ctx context.Context, userID, badgeID uuid.UUID) error
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]Badge, error)
	HasBadge(ctx context.Context, userID, badgeID uuid.UUID) (bool, error)
}

// Service is the badge management service. Reads are public; mutations are
// admin only.
type Service struct {
	storage Storage
}

// New creates the badge service.
func New(storage Storage) *Service {
	return &Service{storage: storage}
}

// List returns a page of badges.
func (s *Service) List(ctx context.Context, page pagination.Params) ([]Badge, int64, error) {
	badges, total, err := s.storage.ListBadges(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, total, nil
}

// Get loads a badge by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Badge, error) {
	return s.storage.GetBadgeByID(ctx, id)
}

// BadgeParams is the input for badge creation and update.
type BadgeParams struct {
	Name        string
	Description string
	IconURL     string
}

func (p *BadgeParams) sanitize() error {
	p.Name = sanitizer.Trim(p.Name)
	p.Description = sanitizer.Trim(p.Description)
	p.IconURL = sanitizer.Trim(p.IconURL)
	return validator.Apply(
		validator.Required("name", p.Name),
		validator.MinLen("name", p.Name, nameMinLen),
		validator.MaxLen("name", p.Name, nameMaxLen),
		validator.MaxLen("description", p.Description, descMaxLen),
	)
}

// Create adds a new badge. Admin only.
func (s *Service) Create(ctx context.Context, actor *auth.User, params BadgeParams) (*Badge, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if err := params.sanitize(); err != nil {
		return nil, err
	}

	b := &Badge{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		IconURL:     params.IconURL,
		CreatedAt:   time.Now(),
	}
	if err := s.storage.CreateBadge(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update modifies badge metadata. Admin only.
func (s *Service) Update(ctx context.Context, actor *auth.User, id uuid.UUID, params BadgeParams) (*Badge, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if err := params.sanitize(); err != nil {
		return nil, err
	}

	b, err := s.storage.GetBadgeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Name = params.Name
	b.Description = params.Description
	b.IconURL = params.IconURL
	b.UpdatedAt = time.Now()

	if err := s.storage.UpdateBadge(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a badge and all its awards. Admin only.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return auth.ErrForbidden
	}
	if _, err := s.storage.GetBadgeByID(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteBadge(ctx, id); err != nil {
		return fmt.Errorf("failed to delete badge: %w", err)
	}
	return nil
}

// Award grants a badge to a user. Admin only.
func (s *Service) Award(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) (*UserBadge, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if _, err := s.storage.GetBadgeByID(ctx, badgeID); err != nil {
		return nil, err
	}

	award := &UserBadge{
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now(),
	}
	if err := s.storage.AwardBadge(ctx, award); err != nil {
		return nil, err
	}
	return award, nil
}

// RemoveAward revokes a badge from a user. Admin only.
func (s *Service) RemoveAward(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) error {
	if !actor.IsAdmin() {
		return auth.ErrForbidden
	}
	return s.storage.RemoveAward(ctx, userID, badgeID)
}

// UserBadges lists the badges awarded to a user.
func (s *Service) UserBadges(ctx context.Context, userID uuid.UUID) ([]Badge, error) {
	badges, err := s.storage.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return badges, nil
}

// Has reports whether the user holds the badge.
func (s *Service) Has(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	return s.storage.HasBadge(ctx, userID, badgeID)
}
