// Package user implements user management: admin CRUD, profile updates, and
// paginated listing. Authorization decisions live here, not in handlers.
package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/pkg/sanitizer"
	"github.com/oakward/identity/pkg/validator"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

// Storage defines user persistence beyond what internal/auth needs: listing,
// full-row updates, and soft deletion.
type Storage interface {
	CreateUser(ctx context.Context, user *auth.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.User, error)
	GetUserByUsername(ctx context.Context, username string) (*auth.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]auth.User, int64, error)
	UpdateUser(ctx context.Context, user *auth.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Service is the user management service.
type Service struct {
	storage          Storage
	revoker          auth.SessionRevoker
	log              *slog.Logger
	bcryptCost       int
	passwordStrength validator.PasswordStrengthConfig
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithBcryptCost sets the bcrypt cost used for admin-created accounts.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// New creates the user management service.
func New(storage Storage, revoker auth.SessionRevoker, opts ...Option) *Service {
	s := &Service{
		storage:          storage,
		revoker:          revoker,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		bcryptCost:       bcrypt.DefaultCost,
		passwordStrength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of users. Admin only.
func (s *Service) List(ctx context.Context, actor *auth.User, page pagination.Params) ([]auth.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, auth.ErrForbidden
	}
	users, total, err := s.storage.ListUsers(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateParams is the input for admin account creation. FullName is optional.
type CreateParams struct {
	Email    string
	Username string
	Password string
	FullName string
	Role     auth.Role
	Verified bool
}

// Create provisions an account directly. Admin only; admin-created accounts
// may start verified.
func (s *Service) Create(ctx context.Context, actor *auth.User, params CreateParams) (*auth.User, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}

	email := sanitizer.NormalizeEmail(params.Email)
	username := sanitizer.Trim(params.Username)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.ValidUsername("username", username, usernameMinLen, usernameMaxLen),
		validator.StrongPassword("password", params.Password, s.passwordStrength),
		validator.NotCommonPassword("password", params.Password),
	); err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = auth.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.User{
		ID:              uuid.New(),
		Email:           email,
		Username:        username,
		PasswordHash:    hash,
		FullName:        sanitizer.Trim(params.FullName),
		Role:            role,
		IsActive:        true,
		IsEmailVerified: params.Verified,
		CreatedAt:       time.Now(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.storage.GetUserByID(ctx, id)
}

// UpdateParams carries optional profile fields; nil means keep.
type UpdateParams struct {
	Username  *string
	FullName  *string
	AvatarURL *string
	IsActive  *bool
	Role      *auth.Role
}

// Update modifies a user. Self may change username, full name, and avatar;
// only admins may touch role and active status, on any user.
func (s *Service) Update(ctx context.Context, actor *auth.User, targetID uuid.UUID, params UpdateParams) (*auth.User, error) {
	isSelf := actor.ID == targetID
	if !isSelf && !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if (params.Role != nil || params.IsActive != nil) && !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}

	target, err := s.storage.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if params.Username != nil {
		username := sanitizer.Trim(*params.Username)
		if err := validator.Apply(
			validator.ValidUsername("username", username, usernameMinLen, usernameMaxLen),
		); err != nil {
			return nil, err
		}
		if username != target.Username {
			if _, err := s.storage.GetUserByUsername(ctx, username); err == nil {
				return nil, auth.ErrUsernameTaken
			} else if !errors.Is(err, auth.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			target.Username = username
		}
	}
	if params.FullName != nil {
		target.FullName = sanitizer.Trim(*params.FullName)
	}
	if params.AvatarURL != nil {
		target.AvatarURL = *params.AvatarURL
	}
	if params.Role != nil {
		target.Role = *params.Role
	}
	if params.IsActive != nil {
		target.IsActive = *params.IsActive
		// Deactivation cuts existing sessions immediately.
		if !target.IsActive {
			if err := s.revoker.RevokeUserSessions(ctx, target.ID); err != nil {
				return nil, fmt.Errorf("failed to revoke sessions: %w", err)
			}
		}
	}

	target.UpdatedAt = time.Now()
	if err := s.storage.UpdateUser(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Delete soft-deletes a user and revokes their sessions. Admin or self.
func (s *Service) Delete(ctx context.Context, actor *auth.User, targetID uuid.UUID) error {
	if actor.ID != targetID && !actor.IsAdmin() {
		return auth.ErrForbidden
	}

	if _, err := s.storage.GetUserByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.revoker.RevokeUserSessions(ctx, targetID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if err := s.storage.DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
