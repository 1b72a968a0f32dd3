package notificationservice

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

func NewMock(t *testing.T) (*Service, *MockRepo, *MockPublisher) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	publisher := NewMockPublisher(ctrl)
	return New(repo, publisher), repo, publisher
}

func TestEmit(t *testing.T) {
	orderID := uuid.New()
	input := []domain.Notification{
		{UserID: uuid.New(), Title: "New job nearby", Type: domain.NotificationOrderAlert, Metadata: domain.NotificationMetadata{OrderID: &orderID}},
		{UserID: uuid.New(), Title: "Quotation received"},
	}

	tests := []struct {
		name        string
		input       []domain.Notification
		prepareMock func(repo *MockRepo, publisher *MockPublisher)
		expectedErr error
		count       int
	}{
		{
			name:        "Nothing to emit",
			input:       nil,
			prepareMock: func(*MockRepo, *MockPublisher) {},
		},
		{
			name:  "Stored and published",
			input: input,
			prepareMock: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().CreateBatch(gomock.Any(), gomock.Len(2)).DoAndReturn(func(_ context.Context, batch []domain.Notification) error {
					for _, n := range batch {
						assert.NotEqual(t, uuid.Nil, n.ID)
						assert.False(t, n.CreatedAt.IsZero())
					}
					assert.Equal(t, domain.NotificationInfo, batch[1].Type)
					return nil
				})
				publisher.EXPECT().Publish(gomock.Any(), gomock.Len(2)).Return(nil)
			},
			count: 2,
		},
		{
			name:  "Publish failure is swallowed",
			input: input,
			prepareMock: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			count: 2,
		},
		{
			name:  "Storage failure is returned",
			input: input,
			prepareMock: func(repo *MockRepo, _ *MockPublisher) {
				repo.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectedErr: domain.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, publisher := NewMock(t)
			tt.prepareMock(repo, publisher)

			emitted, err := service.Emit(context.Background(), tt.input)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, emitted, tt.count)
		})
	}
}

func TestEmitWithoutPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	service := New(repo, nil)
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	service.now = func() time.Time { return stamp }

	repo.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)

	emitted, err := service.Emit(context.Background(), []domain.Notification{{UserID: uuid.New(), IsRead: true}})
	require.NoError(t, err)
	assert.Equal(t, stamp, emitted[0].CreatedAt)
	assert.False(t, emitted[0].IsRead)
}

func TestList(t *testing.T) {
	service, repo, _ := NewMock(t)
	userID := uuid.New()

	repo.EXPECT().ListByUser(gomock.Any(), userID).Return(nil, nil)
	repo.EXPECT().ListByUser(gomock.Any(), userID).Return(nil, errors.New("db error"))

	list, err := service.List(context.Background(), userID)
	assert.NoError(t, err)
	assert.NotNil(t, list)

	_, err = service.List(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestMarkAsRead(t *testing.T) {
	service, repo, _ := NewMock(t)
	id, userID := uuid.New(), uuid.New()

	repo.EXPECT().MarkAsRead(gomock.Any(), id, userID).Return(true, nil)
	repo.EXPECT().MarkAsRead(gomock.Any(), id, userID).Return(false, nil)

	assert.NoError(t, service.MarkAsRead(context.Background(), id, userID))
	assert.ErrorIs(t, service.MarkAsRead(context.Background(), id, userID), domain.ErrNotFound)
}
