package profileservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	service := New(repo)
	service.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return service, repo
}

func ptr[T any](v T) *T { return &v }

func TestGet(t *testing.T) {
	service, repo := NewMock(t)
	userID := uuid.New()

	repo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&domain.Profile{UserID: userID, FullName: "Jane"}, nil)
	profile, err := service.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FullName)

	repo.EXPECT().FindByUserID(gomock.Any(), userID).Return(nil, nil)
	_, err = service.Get(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repo.EXPECT().FindByUserID(gomock.Any(), userID).Return(nil, errors.New("db down"))
	_, err = service.Get(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestUpdate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		upd         ProfileUpdate
		expectedErr error
		check       func(t *testing.T, p *domain.Profile)
	}{
		{
			name: "Name and location",
			upd:  ProfileUpdate{FullName: ptr("  Jane Wanjiru "), LocationName: ptr("Westlands"), Latitude: ptr(-1.26), Longitude: ptr(36.8)},
			check: func(t *testing.T, p *domain.Profile) {
				assert.Equal(t, "Jane Wanjiru", p.FullName)
				assert.Equal(t, "Westlands", p.LocationName)
				assert.True(t, p.HasLocation())
				assert.Equal(t, "old-avatar", p.AvatarRef)
			},
		},
		{
			name: "Avatar only keeps coordinates",
			upd:  ProfileUpdate{AvatarRef: ptr("new-avatar")},
			check: func(t *testing.T, p *domain.Profile) {
				assert.Equal(t, "new-avatar", p.AvatarRef)
				assert.False(t, p.HasLocation())
			},
		},
		{name: "Latitude without longitude", upd: ProfileUpdate{Latitude: ptr(1.0)}, expectedErr: domain.ErrValidation},
		{name: "Out of range", upd: ProfileUpdate{Latitude: ptr(91.0), Longitude: ptr(0.0)}, expectedErr: domain.ErrValidation},
		{name: "Blank name", upd: ProfileUpdate{FullName: ptr("  ")}, expectedErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := NewMock(t)
			if tt.expectedErr == nil {
				repo.EXPECT().FindByUserID(gomock.Any(), userID).
					Return(&domain.Profile{UserID: userID, FullName: "Jane", AvatarRef: "old-avatar"}, nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			}

			profile, err := service.Update(context.Background(), userID, tt.upd)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, service.now(), profile.UpdatedAt)
			tt.check(t, profile)
		})
	}
}

func TestSetCategories(t *testing.T) {
	userID := uuid.New()
	plumbing, electrical := uuid.New(), uuid.New()

	t.Run("Provider sets categories", func(t *testing.T) {
		service, repo := NewMock(t)
		repo.EXPECT().FindByUserID(gomock.Any(), userID).
			Return(&domain.Profile{UserID: userID, Role: domain.RoleServiceProvider}, nil)
		repo.EXPECT().CategoryExists(gomock.Any(), plumbing).Return(true, nil)
		repo.EXPECT().CategoryExists(gomock.Any(), electrical).Return(true, nil)
		repo.EXPECT().SetCategories(gomock.Any(), userID, []uuid.UUID{plumbing, electrical}).Return(nil)

		profile, err := service.SetCategories(context.Background(), userID, []uuid.UUID{plumbing, electrical, plumbing})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plumbing, electrical}, profile.CategoryIDs)
	})

	t.Run("Receiver is rejected", func(t *testing.T) {
		service, repo := NewMock(t)
		repo.EXPECT().FindByUserID(gomock.Any(), userID).
			Return(&domain.Profile{UserID: userID, Role: domain.RoleServiceReceiver}, nil)

		_, err := service.SetCategories(context.Background(), userID, []uuid.UUID{plumbing})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Unknown category", func(t *testing.T) {
		service, repo := NewMock(t)
		repo.EXPECT().FindByUserID(gomock.Any(), userID).
			Return(&domain.Profile{UserID: userID, Role: domain.RoleServiceProvider}, nil)
		repo.EXPECT().CategoryExists(gomock.Any(), plumbing).Return(false, nil)

		_, err := service.SetCategories(context.Background(), userID, []uuid.UUID{plumbing})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Clearing categories", func(t *testing.T) {
		service, repo := NewMock(t)
		repo.EXPECT().FindByUserID(gomock.Any(), userID).
			Return(&domain.Profile{UserID: userID, Role: domain.RoleServiceProvider, CategoryIDs: []uuid.UUID{plumbing}}, nil)
		repo.EXPECT().SetCategories(gomock.Any(), userID, []uuid.UUID{}).Return(nil)

		profile, err := service.SetCategories(context.Background(), userID, nil)
		require.NoError(t, err)
		assert.Empty(t, profile.CategoryIDs)
	})
}

func TestCategories(t *testing.T) {
	service, repo := NewMock(t)
	repo.EXPECT().ListCategories(gomock.Any()).Return(nil, nil)

	categories, err := service.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}
