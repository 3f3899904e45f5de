package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oakward/identity/pkg/jwt"
	"github.com/oakward/identity/pkg/logger"
)

// AccessClaims is the JWT payload of access tokens. jti carries the session
// id so a token maps back to exactly one session row.
type AccessClaims struct {
	SessionID string `json:"jti"`
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// Valid checks token expiry.
func (c AccessClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return jwt.ErrExpiredToken
	}
	return nil
}

// SessionIssuer issues token pairs for an authenticated user. Implemented by
// SessionService; declared separately so the password and OAuth services can
// depend on just this.
type SessionIssuer interface {
	Issue(ctx context.Context, user *User, meta ClientMeta) (*AuthTokens, error)
}

// SessionService manages the session lifecycle: issue, refresh, logout, and
// access-token authentication.
type SessionService struct {
	storage    SessionStorage
	users      UserStorage
	jwt        *jwt.Service
	log        *slog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
}

type SessionOption func(*SessionService)

// WithSessionLogger sets a custom logger for the service.
func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *SessionService) { s.log = log }
}

// WithAccessTokenTTL sets the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) { s.accessTTL = ttl }
}

// WithRefreshTokenTTL sets the refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) { s.refreshTTL = ttl }
}

// WithRefreshRotation toggles refresh-token rotation on refresh.
func WithRefreshRotation(rotate bool) SessionOption {
	return func(s *SessionService) { s.rotate = rotate }
}

// NewSessionService creates a session service. Defaults: 1h access tokens,
// 168h refresh tokens, rotation on.
func NewSessionService(storage SessionStorage, users UserStorage, jwtService *jwt.Service, opts ...SessionOption) *SessionService {
	s := &SessionService{
		storage:    storage,
		users:      users,
		jwt:        jwtService,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		accessTTL:  time.Hour,
		refreshTTL: 168 * time.Hour,
		rotate:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a new session for the user and returns the token pair.
func (s *SessionService) Issue(ctx context.Context, user *User, meta ClientMeta) (*AuthTokens, error) {
	now := time.Now()
	sessionID := uuid.New()
	accessExpiresAt := now.Add(s.accessTTL)
	refreshExpiresAt := now.Add(s.refreshTTL)

	accessToken, err := s.jwt.Generate(AccessClaims{
		SessionID: sessionID.String(),
		Subject:   user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: accessExpiresAt.Unix(),
		IssuedAt:  now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:               sessionID,
		UserID:           user.ID,
		AccessToken:      accessToken,
		RefreshTokenHash: HashToken(refreshToken),
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		IsActive:         true,
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
		DeviceInfo:       meta.DeviceInfo,
		CreatedAt:        now,
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthTokens{
		SessionID:        sessionID,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. With
// rotation on the refresh token is replaced in the same atomic update that
// validates the old one, so a replayed token loses the race and fails.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	currentHash := HashToken(refreshToken)

	// The read only discovers the session id and user; the conditional
	// update below is the arbiter between concurrent refreshers.
	session, err := s.storage.GetSessionByRefreshHash(ctx, currentHash)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now()
	accessExpiresAt := now.Add(s.accessTTL)

	accessToken, err := s.jwt.Generate(AccessClaims{
		SessionID: session.ID.String(),
		Subject:   user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: accessExpiresAt.Unix(),
		IssuedAt:  now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken := refreshToken
	refreshExpiresAt := session.RefreshExpiresAt
	upd := SessionTokenUpdate{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiresAt,
	}
	if s.rotate {
		newRefreshToken, err = generateToken()
		if err != nil {
			return nil, err
		}
		refreshExpiresAt = now.Add(s.refreshTTL)
		upd.RefreshTokenHash = HashToken(newRefreshToken)
		upd.RefreshExpiresAt = refreshExpiresAt
	}

	updated, err := s.storage.UpdateSessionTokens(ctx, currentHash, upd)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	return &AuthTokens{
		SessionID:        updated.ID,
		AccessToken:      accessToken,
		RefreshToken:     newRefreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout deactivates the session matching the refresh token. Idempotent:
// unknown and already-inactive tokens report success so the endpoint is not
// a token validity oracle.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.storage.DeactivateSession(ctx, HashToken(refreshToken)); err != nil {
		s.log.ErrorContext(ctx, "failed to deactivate session",
			logger.Error(err),
			logger.Component("session"),
		)
	}
	return nil
}

// Authenticate verifies an access token and loads its user. Expired tokens
// fail even with a valid signature; inactive or deleted users are rejected.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*User, *AccessClaims, error) {
	var claims AccessClaims
	if err := s.jwt.Parse(accessToken, &claims); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	return user, &claims, nil
}

// RevokeUserSessions deactivates every session of the user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	return s.storage.RevokeUserSessions(ctx, userID)
}

// PurgeExpired removes sessions whose refresh window has passed. Run from the
// periodic cleanup job.
func (s *SessionService) PurgeExpired(ctx context.Context) error {
	n, err := s.storage.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "purged expired sessions", slog.Int64("count", n), logger.Component("session"))
	}
	return nil
}
