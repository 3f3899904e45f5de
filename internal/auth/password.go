package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakward/identity/pkg/sanitizer"
	"github.com/oakward/identity/pkg/task"
	"github.com/oakward/identity/pkg/validator"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

// RegisterParams is the input for Register. FullName is optional.
type RegisterParams struct {
	Email    string
	Username string
	Password string
	FullName string
}

// LoginParams is the input for Login. Identifier is an email when it
// contains '@', a username otherwise.
type LoginParams struct {
	Identifier string
	Password   string
	Meta       ClientMeta
}

// ChangePasswordParams is the input for ChangePassword. CurrentPassword is
// required for self-service changes and ignored for admin actors.
type ChangePasswordParams struct {
	ActorID         uuid.UUID
	ActorRole       Role
	TargetID        uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// SessionRevoker invalidates every session of a user. Implemented by
// SessionService.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
}

// PasswordService handles registration and credential authentication.
type PasswordService struct {
	users            UserStorage
	sessions         SessionIssuer
	revoker          SessionRevoker
	runner           *task.Runner
	log              *slog.Logger
	bcryptCost       int
	passwordStrength validator.PasswordStrengthConfig

	afterRegister func(ctx context.Context, user *User) error
}

type PasswordOption func(*PasswordService)

// WithPasswordLogger sets a custom logger for the service.
func WithPasswordLogger(log *slog.Logger) PasswordOption {
	return func(s *PasswordService) { s.log = log }
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) PasswordOption {
	return func(s *PasswordService) { s.bcryptCost = cost }
}

// WithPasswordStrength sets custom password strength requirements.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) PasswordOption {
	return func(s *PasswordService) { s.passwordStrength = cfg }
}

// WithAfterRegister sets a hook fired in the background after successful
// registration. Used to issue and send the verification email.
func WithAfterRegister(fn func(context.Context, *User) error) PasswordOption {
	return func(s *PasswordService) { s.afterRegister = fn }
}

// NewPasswordService creates a password authentication service. sessions and
// revoker are both satisfied by SessionService.
func NewPasswordService(
	users UserStorage,
	sessions SessionIssuer,
	revoker SessionRevoker,
	runner *task.Runner,
	opts ...PasswordOption,
) *PasswordService {
	s := &PasswordService{
		users:            users,
		sessions:         sessions,
		revoker:          revoker,
		runner:           runner,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		bcryptCost:       bcrypt.DefaultCost,
		passwordStrength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user. Duplicate email or username surfaces as
// ErrEmailTaken / ErrUsernameTaken even under concurrent registration, via
// the storage layer's unique-violation mapping.
func (s *PasswordService) Register(ctx context.Context, params RegisterParams) (*User, error) {
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

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:              uuid.New(),
		Email:           email,
		Username:        username,
		PasswordHash:    hash,
		FullName:        sanitizer.Trim(params.FullName),
		Role:            RoleUser,
		IsActive:        true,
		IsEmailVerified: false,
		CreatedAt:       time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.afterRegister != nil {
		s.runner.Go("send-verification-email", func(ctx context.Context) error {
			return s.afterRegister(ctx, user)
		})
	}

	return user, nil
}

// Login authenticates by email or username and issues a session. Every
// failure mode returns the same ErrInvalidCredentials so responses cannot be
// used to enumerate accounts.
func (s *PasswordService) Login(ctx context.Context, params LoginParams) (*User, *AuthTokens, error) {
	var (
		user *User
		err  error
	)
	if strings.Contains(params.Identifier, "@") {
		user, err = s.users.GetUserByEmail(ctx, sanitizer.NormalizeEmail(params.Identifier))
	} else {
		user, err = s.users.GetUserByUsername(ctx, sanitizer.Trim(params.Identifier))
	}
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(params.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.sessions.Issue(ctx, user, params.Meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	userID := user.ID
	s.runner.Go("update-last-login", func(ctx context.Context) error {
		return s.users.SetLastLogin(ctx, userID, time.Now())
	})

	return user, tokens, nil
}

// ChangePassword updates the target user's password. Self-change verifies
// the current password; admins may skip it; any other actor is forbidden.
// All of the target's sessions are revoked synchronously, the new hash is
// persisted in the background.
func (s *PasswordService) ChangePassword(ctx context.Context, params ChangePasswordParams) error {
	isSelf := params.ActorID == params.TargetID
	isAdmin := params.ActorRole == RoleAdmin
	if !isSelf && !isAdmin {
		return ErrForbidden
	}

	if err := validator.Apply(
		validator.StrongPassword("new_password", params.NewPassword, s.passwordStrength),
		validator.NotCommonPassword("new_password", params.NewPassword),
	); err != nil {
		return err
	}

	target, err := s.users.GetUserByID(ctx, params.TargetID)
	if err != nil {
		return err
	}

	if isSelf && !isAdmin {
		if err := bcrypt.CompareHashAndPassword(target.PasswordHash, []byte(params.CurrentPassword)); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.revoker.RevokeUserSessions(ctx, target.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	targetID := target.ID
	s.runner.Go("persist-password-hash", func(ctx context.Context) error {
		return s.users.StorePasswordHash(ctx, targetID, hash)
	})

	return nil
}
