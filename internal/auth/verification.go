package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakward/identity/pkg/logger"
	"github.com/oakward/identity/pkg/sanitizer"
	"github.com/oakward/identity/pkg/task"
	"github.com/oakward/identity/pkg/validator"
)

// MailDispatcher sends the account lifecycle emails. Implemented by
// internal/mail.
type MailDispatcher interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// VerificationService issues and consumes single-use tokens for email
// verification and password reset.
type VerificationService struct {
	users   UserStorage
	tokens  TokenStorage
	mail    MailDispatcher
	revoker SessionRevoker
	runner  *task.Runner
	log     *slog.Logger

	verificationTTL  time.Duration
	resetTTL         time.Duration
	bcryptCost       int
	passwordStrength validator.PasswordStrengthConfig
}

type VerificationOption func(*VerificationService)

// WithVerificationLogger sets a custom logger for the service.
func WithVerificationLogger(log *slog.Logger) VerificationOption {
	return func(s *VerificationService) { s.log = log }
}

// WithVerificationTTL sets the email-verification token lifetime.
func WithVerificationTTL(ttl time.Duration) VerificationOption {
	return func(s *VerificationService) { s.verificationTTL = ttl }
}

// WithResetTTL sets the password-reset token lifetime.
func WithResetTTL(ttl time.Duration) VerificationOption {
	return func(s *VerificationService) { s.resetTTL = ttl }
}

// WithVerificationBcryptCost sets the bcrypt cost used for reset passwords.
func WithVerificationBcryptCost(cost int) VerificationOption {
	return func(s *VerificationService) { s.bcryptCost = cost }
}

// WithVerificationPasswordStrength sets the strength policy for reset passwords.
func WithVerificationPasswordStrength(cfg validator.PasswordStrengthConfig) VerificationOption {
	return func(s *VerificationService) { s.passwordStrength = cfg }
}

// NewVerificationService creates a verification-token service. Defaults:
// 24h verification tokens, 1h reset tokens.
func NewVerificationService(
	users UserStorage,
	tokens TokenStorage,
	mail MailDispatcher,
	revoker SessionRevoker,
	runner *task.Runner,
	opts ...VerificationOption,
) *VerificationService {
	s := &VerificationService{
		users:            users,
		tokens:           tokens,
		mail:             mail,
		revoker:          revoker,
		runner:           runner,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		verificationTTL:  24 * time.Hour,
		resetTTL:         time.Hour,
		bcryptCost:       bcrypt.DefaultCost,
		passwordStrength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken creates a fresh token of the given kind, invalidating any
// unused tokens of the same kind so only the newest link works.
func (s *VerificationService) IssueToken(ctx context.Context, userID uuid.UUID, kind TokenKind) (*VerificationToken, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, err
	}

	ttl := s.verificationTTL
	if kind == TokenKindPasswordReset {
		ttl = s.resetTTL
	}

	if err := s.tokens.InvalidateUserTokens(ctx, userID, kind); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous tokens: %w", err)
	}

	token := &VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     raw,
		Kind:      kind,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	if err := s.tokens.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// SendVerification issues an email-verification token and dispatches the
// email. Used as the after-register hook and by ResendVerification.
func (s *VerificationService) SendVerification(ctx context.Context, user *User) error {
	token, err := s.IssueToken(ctx, user.ID, TokenKindEmailVerification)
	if err != nil {
		return err
	}
	return s.mail.SendVerificationEmail(ctx, user.Email, token.Token)
}

// VerifyEmail consumes a verification token. The consume is a single atomic
// statement; the verified flag flips in a background task.
func (s *VerificationService) VerifyEmail(ctx context.Context, rawToken string) (*User, error) {
	token, err := s.consume(ctx, rawToken, TokenKindEmailVerification)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	s.runner.Go("set-email-verified", func(ctx context.Context) error {
		return s.users.SetEmailVerified(ctx, userID)
	})

	user.IsEmailVerified = true
	return user, nil
}

// ResendVerification re-issues the verification email for an authenticated
// but unverified user. Already-verified users get a no-op success.
func (s *VerificationService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return nil
	}

	s.runner.Go("resend-verification-email", func(ctx context.Context) error {
		return s.SendVerification(ctx, user)
	})
	return nil
}

// RequestPasswordReset issues a reset token and emails it. Unknown emails
// return ErrUserNotFound; the handler masks this as success to avoid
// account enumeration.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.IssueToken(ctx, user.ID, TokenKindPasswordReset)
	if err != nil {
		return err
	}

	to := user.Email
	s.runner.Go("send-password-reset-email", func(ctx context.Context) error {
		return s.mail.SendPasswordResetEmail(ctx, to, token.Token)
	})
	return nil
}

// ResetPassword consumes a reset token and sets the new password. Hashing is
// synchronous; hash persistence and session revocation run in the background.
func (s *VerificationService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.passwordStrength),
		validator.NotCommonPassword("password", newPassword),
	); err != nil {
		return err
	}

	token, err := s.consume(ctx, rawToken, TokenKindPasswordReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID := token.UserID
	s.runner.Go("persist-reset-password", func(ctx context.Context) error {
		if err := s.users.StorePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		if err := s.revoker.RevokeUserSessions(ctx, userID); err != nil {
			s.log.Error("failed to revoke sessions after password reset",
				logger.UserID(userID.String()),
				logger.Error(err),
				logger.Component("verification"),
			)
		}
		return nil
	})
	return nil
}

// CleanupExpired deletes expired tokens. Run from the periodic job.
func (s *VerificationService) CleanupExpired(ctx context.Context) error {
	n, err := s.tokens.DeleteExpiredTokens(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "deleted expired tokens", slog.Int64("count", n), logger.Component("verification"))
	}
	return nil
}

// consume atomically spends a token, probing afterwards so callers can tell
// a missing token (ErrTokenNotFound) from a spent or expired one
// (ErrTokenExpired).
func (s *VerificationService) consume(ctx context.Context, rawToken string, kind TokenKind) (*VerificationToken, error) {
	token, err := s.tokens.ConsumeToken(ctx, rawToken, kind)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	if _, probeErr := s.tokens.FindToken(ctx, rawToken, kind); probeErr == nil {
		return nil, ErrTokenExpired
	}
	return nil, ErrTokenNotFound
}
