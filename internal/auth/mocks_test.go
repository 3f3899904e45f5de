package auth_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oakward/identity/internal/auth"
)

type mockUserStorage struct {
	mock.Mock
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *mockUserStorage) SetEmailVerified(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStorage) SetLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockSessionStorage struct {
	mock.Mock
}

func (m *mockSessionStorage) CreateSession(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionStorage) GetSessionByID(ctx context.Context, id uuid.UUID) (*auth.Session, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStorage) GetSessionByRefreshHash(ctx context.Context, refreshTokenHash string) (*auth.Session, error) {
	args := m.Called(ctx, refreshTokenHash)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStorage) UpdateSessionTokens(ctx context.Context, refreshTokenHash string, upd auth.SessionTokenUpdate) (*auth.Session, error) {
	args := m.Called(ctx, refreshTokenHash, upd)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStorage) DeactivateSession(ctx context.Context, refreshTokenHash string) error {
	return m.Called(ctx, refreshTokenHash).Error(0)
}

func (m *mockSessionStorage) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessionStorage) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockTokenStorage struct {
	mock.Mock
}

func (m *mockTokenStorage) CreateToken(ctx context.Context, token *auth.VerificationToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenStorage) ConsumeToken(ctx context.Context, token string, kind auth.TokenKind) (*auth.VerificationToken, error) {
	args := m.Called(ctx, token, kind)
	if t := args.Get(0); t != nil {
		return t.(*auth.VerificationToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenStorage) FindToken(ctx context.Context, token string, kind auth.TokenKind) (*auth.VerificationToken, error) {
	args := m.Called(ctx, token, kind)
	if t := args.Get(0); t != nil {
		return t.(*auth.VerificationToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenStorage) InvalidateUserTokens(ctx context.Context, userID uuid.UUID, kind auth.TokenKind) error {
	return m.Called(ctx, userID, kind).Error(0)
}

func (m *mockTokenStorage) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockOAuthStorage struct {
	mock.Mock
}

func (m *mockOAuthStorage) GetProviderByName(ctx context.Context, name string) (*auth.Provider, error) {
	args := m.Called(ctx, name)
	if p := args.Get(0); p != nil {
		return p.(*auth.Provider), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOAuthStorage) UpsertProvider(ctx context.Context, provider *auth.Provider) error {
	return m.Called(ctx, provider).Error(0)
}

func (m *mockOAuthStorage) GetConnection(ctx context.Context, providerID uuid.UUID, providerUserID string) (*auth.Connection, error) {
	args := m.Called(ctx, providerID, providerUserID)
	if c := args.Get(0); c != nil {
		return c.(*auth.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOAuthStorage) UpsertConnection(ctx context.Context, conn *auth.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *mockOAuthStorage) ListUserConnections(ctx context.Context, userID uuid.UUID) ([]auth.Connection, error) {
	args := m.Called(ctx, userID)
	if c := args.Get(0); c != nil {
		return c.([]auth.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStateStore struct {
	mock.Mock
}

func (m *mockStateStore) StoreState(ctx context.Context, state, providerName string, ttl time.Duration) error {
	return m.Called(ctx, state, providerName, ttl).Error(0)
}

func (m *mockStateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

type mockSessionIssuer struct {
	mock.Mock
}

func (m *mockSessionIssuer) Issue(ctx context.Context, user *auth.User, meta auth.ClientMeta) (*auth.AuthTokens, error) {
	args := m.Called(ctx, user, meta)
	if t := args.Get(0); t != nil {
		return t.(*auth.AuthTokens), args.Error(1)
	}
	return nil, args.Error(1)
}
