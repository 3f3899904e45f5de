package badge_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/pkg/validator"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreateBadge(ctx context.Context, b *badge.Badge) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStorage) GetBadgeByID(ctx context.Context, id uuid.UUID) (*badge.Badge, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) ListBadges(ctx context.Context, offset, limit int) ([]badge.Badge, int64, error) {
	args := m.Called(ctx, offset, limit)
	if b := args.Get(0); b != nil {
		return b.([]badge.Badge), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockStorage) UpdateBadge(ctx context.Context, b *badge.Badge) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStorage) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStorage) AwardBadge(ctx context.Context, award *badge.UserBadge) error {
	return m.Called(ctx, award).Error(0)
}

func (m *mockStorage) RemoveAward(ctx context.Context, userID, badgeID uuid.UUID) error {
	return m.Called(ctx, userID, badgeID).Error(0)
}

func (m *mockStorage) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]badge.Badge, error) {
	args := m.Called(ctx, userID)
	if b := args.Get(0); b != nil {
		return b.([]badge.Badge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) HasBadge(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, badgeID)
	return args.Bool(0), args.Error(1)
}

func admin() *auth.User {
	return &auth.User{ID: uuid.New(), Role: auth.RoleAdmin, IsActive: true}
}

func regular() *auth.User {
	return &auth.User{ID: uuid.New(), Role: auth.RoleUser, IsActive: true}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	t.Run("admin creates badge", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		storage.On("CreateBadge", mock.Anything, mock.Anything).Return(nil)

		b, err := svc.Create(context.Background(), admin(), badge.BadgeParams{
			Name:        "  Early Adopter ",
			Description: "Joined in the first month",
		})
		require.NoError(t, err)
		assert.Equal(t, "Early Adopter", b.Name)
		assert.NotEqual(t, uuid.Nil, b.ID)
		assert.False(t, b.CreatedAt.IsZero())
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		_, err := svc.Create(context.Background(), regular(), badge.BadgeParams{Name: "Nope"})
		require.ErrorIs(t, err, auth.ErrForbidden)
		storage.AssertNotCalled(t, "CreateBadge", mock.Anything, mock.Anything)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		t.Parallel()

		svc := badge.New(new(mockStorage))
		_, err := svc.Create(context.Background(), admin(), badge.BadgeParams{Name: "  "})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	storage := new(mockStorage)
	svc := badge.New(storage)

	id := uuid.New()
	storage.On("GetBadgeByID", mock.Anything, id).
		Return(&badge.Badge{ID: id, Name: "Old"}, nil)
	storage.On("UpdateBadge", mock.Anything, mock.Anything).Return(nil)

	b, err := svc.Update(context.Background(), admin(), id, badge.BadgeParams{Name: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", b.Name)
	assert.False(t, b.UpdatedAt.IsZero())
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("missing badge", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		id := uuid.New()
		storage.On("GetBadgeByID", mock.Anything, id).Return(nil, badge.ErrBadgeNotFound)

		require.ErrorIs(t, svc.Delete(context.Background(), admin(), id), badge.ErrBadgeNotFound)
	})

	t.Run("admin deletes", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		id := uuid.New()
		storage.On("GetBadgeByID", mock.Anything, id).Return(&badge.Badge{ID: id}, nil)
		storage.On("DeleteBadge", mock.Anything, id).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), admin(), id))
	})
}

func TestService_Award(t *testing.T) {
	t.Parallel()

	t.Run("awards once", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		userID, badgeID := uuid.New(), uuid.New()
		storage.On("GetBadgeByID", mock.Anything, badgeID).Return(&badge.Badge{ID: badgeID}, nil)
		storage.On("AwardBadge", mock.Anything, mock.Anything).Return(nil)

		award, err := svc.Award(context.Background(), admin(), userID, badgeID)
		require.NoError(t, err)
		assert.Equal(t, userID, award.UserID)
		assert.Equal(t, badgeID, award.BadgeID)
	})

	t.Run("duplicate award surfaces conflict", func(t *testing.T) {
		t.Parallel()

		storage := new(mockStorage)
		svc := badge.New(storage)

		userID, badgeID := uuid.New(), uuid.New()
		storage.On("GetBadgeByID", mock.Anything, badgeID).Return(&badge.Badge{ID: badgeID}, nil)
		storage.On("AwardBadge", mock.Anything, mock.Anything).Return(badge.ErrAlreadyAwarded)

		_, err := svc.Award(context.Background(), admin(), userID, badgeID)
		require.ErrorIs(t, err, badge.ErrAlreadyAwarded)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		t.Parallel()

		svc := badge.New(new(mockStorage))
		_, err := svc.Award(context.Background(), regular(), uuid.New(), uuid.New())
		require.ErrorIs(t, err, auth.ErrForbidden)
	})
}

func TestService_UserBadges(t *testing.T) {
	t.Parallel()

	storage := new(mockStorage)
	svc := badge.New(storage)

	userID := uuid.New()
	storage.On("ListUserBadges", mock.Anything, userID).
		Return([]badge.Badge{{Name: "One"}, {Name: "Two"}}, nil)

	badges, err := svc.UserBadges(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, badges, 2)
}

func TestService_List(t *testing.T) {
	t.Parallel()

	storage := new(mockStorage)
	svc := badge.New(storage)

	storage.On("ListBadges", mock.Anything, 0, 10).
		Return([]badge.Badge{{Name: "One"}}, int64(1), nil)

	badges, total, err := svc.List(context.Background(), pagination.Normalize(1, 10))
	require.NoError(t, err)
	assert.Len(t, badges, 1)
	assert.Equal(t, int64(1), total)
}
