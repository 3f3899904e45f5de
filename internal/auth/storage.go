package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStorage defines the user persistence operations the auth services need.
// Implementations translate datastore errors into the package sentinels
// (ErrUserNotFound, ErrEmailTaken, ErrUsernameTaken).
type UserStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
	SetLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// SessionTokenUpdate describes the replacement tokens applied during refresh.
// An empty RefreshTokenHash keeps the current refresh token (rotation off).
type SessionTokenUpdate struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshTokenHash string
	RefreshExpiresAt time.Time
}

// SessionStorage persists sessions. UpdateSessionTokens must be atomic: a
// single conditional update keyed on the current refresh-token hash where the
// session is still active and unexpired, returning ErrSessionNotFound when no
// row matched so concurrent refreshers resolve to one winner.
type SessionStorage interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetSessionByRefreshHash(ctx context.Context, refreshTokenHash string) (*Session, error)
	UpdateSessionTokens(ctx context.Context, refreshTokenHash string, upd SessionTokenUpdate) (*Session, error)
	DeactivateSession(ctx context.Context, refreshTokenHash string) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// TokenStorage persists single-use verification tokens. ConsumeToken must be
// atomic (conditional update on used_at IS NULL and unexpired); FindToken is
// the probe that lets callers distinguish a missing token from a spent or
// expired one.
type TokenStorage interface {
	CreateToken(ctx context.Context, token *VerificationToken) error
	ConsumeToken(ctx context.Context, token string, kind TokenKind) (*VerificationToken, error)
	FindToken(ctx context.Context, token string, kind TokenKind) (*VerificationToken, error)
	InvalidateUserTokens(ctx context.Context, userID uuid.UUID, kind TokenKind) error
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// OAuthStorage persists provider configuration and user-provider links.
type OAuthStorage interface {
	GetProviderByName(ctx context.Context, name string) (*Provider, error)
	UpsertProvider(ctx context.Context, provider *Provider) error
	GetConnection(ctx context.Context, providerID uuid.UUID, providerUserID string) (*Connection, error)
	UpsertConnection(ctx context.Context, conn *Connection) error
	ListUserConnections(ctx context.Context, userID uuid.UUID) ([]Connection, error)
}

// StateStore holds OAuth state values for the duration of the redirect
// round-trip. ConsumeState must be single-use and atomic.
type StateStore interface {
	StoreState(ctx context.Context, state, providerName string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (string, error)
}
