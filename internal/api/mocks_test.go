package api_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/internal/user"
)

type mockPasswords struct {
	mock.Mock
}

func (m *mockPasswords) Register(ctx context.Context, params auth.RegisterParams) (*auth.User, error) {
	args := m.Called(ctx, params)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPasswords) Login(ctx context.Context, params auth.LoginParams) (*auth.User, *auth.AuthTokens, error) {
	args := m.Called(ctx, params)
	var u *auth.User
	var t *auth.AuthTokens
	if v := args.Get(0); v != nil {
		u = v.(*auth.User)
	}
	if v := args.Get(1); v != nil {
		t = v.(*auth.AuthTokens)
	}
	return u, t, args.Error(2)
}

func (m *mockPasswords) ChangePassword(ctx context.Context, params auth.ChangePasswordParams) error {
	return m.Called(ctx, params).Error(0)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Authenticate(ctx context.Context, accessToken string) (*auth.User, *auth.AccessClaims, error) {
	args := m.Called(ctx, accessToken)
	var u *auth.User
	var c *auth.AccessClaims
	if v := args.Get(0); v != nil {
		u = v.(*auth.User)
	}
	if v := args.Get(1); v != nil {
		c = v.(*auth.AccessClaims)
	}
	return u, c, args.Error(2)
}

func (m *mockSessions) Refresh(ctx context.Context, refreshToken string) (*auth.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	if t := args.Get(0); t != nil {
		return t.(*auth.AuthTokens), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessions) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyEmail(ctx context.Context, token string) (*auth.User, error) {
	args := m.Called(ctx, token)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerifier) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockVerifier) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockVerifier) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type mockOAuth struct {
	mock.Mock
}

func (m *mockOAuth) AuthorizationURL(ctx context.Context, providerName string) (string, string, error) {
	args := m.Called(ctx, providerName)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockOAuth) HandleCallback(ctx context.Context, providerName, code, state string, meta auth.ClientMeta) (*auth.User, *auth.AuthTokens, error) {
	args := m.Called(ctx, providerName, code, state, meta)
	var u *auth.User
	var t *auth.AuthTokens
	if v := args.Get(0); v != nil {
		u = v.(*auth.User)
	}
	if v := args.Get(1); v != nil {
		t = v.(*auth.AuthTokens)
	}
	return u, t, args.Error(2)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) List(ctx context.Context, actor *auth.User, page pagination.Params) ([]auth.User, int64, error) {
	args := m.Called(ctx, actor, page)
	if u := args.Get(0); u != nil {
		return u.([]auth.User), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockUsers) Create(ctx context.Context, actor *auth.User, params user.CreateParams) (*auth.User, error) {
	args := m.Called(ctx, actor, params)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, actor *auth.User, targetID uuid.UUID, params user.UpdateParams) (*auth.User, error) {
	args := m.Called(ctx, actor, targetID, params)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Delete(ctx context.Context, actor *auth.User, targetID uuid.UUID) error {
	return m.Called(ctx, actor, targetID).Error(0)
}

type mockBadges struct {
	mock.Mock
}

func (m *mockBadges) List(ctx context.Context, page pagination.Params) ([]badge.Badge, int64, error) {
	args := m.Called(ctx, page)
	if b := args.Get(0); b != nil {
		return b.([]badge.Badge), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockBadges) Get(ctx context.Context, id uuid.UUID) (*badge.Badge, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBadges) Create(ctx context.Context, actor *auth.User, params badge.BadgeParams) (*badge.Badge, error) {
	args := m.Called(ctx, actor, params)
	if b := args.Get(0); b != nil {
		return b.(*badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBadges) Update(ctx context.Context, actor *auth.User, id uuid.UUID, params badge.BadgeParams) (*badge.Badge, error) {
	args := m.Called(ctx, actor, id, params)
	if b := args.Get(0); b != nil {
		return b.(*badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBadges) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockBadges) Award(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) (*badge.UserBadge, error) {
	args := m.Called(ctx, actor, userID, badgeID)
	if b := args.Get(0); b != nil {
		return b.(*badge.UserBadge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBadges) RemoveAward(ctx context.Context, actor *auth.User, userID, badgeID uuid.UUID) error {
	return m.Called(ctx, actor, userID, badgeID).Error(0)
}

func (m *mockBadges) UserBadges(ctx context.Context, userID uuid.UUID) ([]badge.Badge, error) {
	args := m.Called(ctx, userID)
	if b := args.Get(0); b != nil {
		return b.([]badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBadges) Has(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, badgeID)
	return args.Bool(0), args.Error(1)
}
