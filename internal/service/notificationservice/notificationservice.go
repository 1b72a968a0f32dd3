package notificationservice

import (
	"context"
	"fmt"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=notificationservice.go -destination=mock_notificationservice.go -package=notificationservice

type Repo interface {
	CreateBatch(ctx context.Context, notifications []domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// Publisher hands stored notifications to a delivery transport.
type Publisher interface {
	Publish(ctx context.Context, notifications []domain.Notification) error
}

type Service struct {
	repo      Repo
	publisher Publisher
	now       func() time.Time
}

// New builds the sink. publisher may be nil, in which case notifications are only stored.
func New(repo Repo, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Emit stores the notifications as one batch and then offers them to the publisher.
// Publishing is best effort: its failures are logged and never returned.
func (s *Service) Emit(ctx context.Context, notifications []domain.Notification) ([]domain.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	now := s.now()
	batch := make([]domain.Notification, len(notifications))
	for i, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.Type == "" {
			n.Type = domain.NotificationInfo
		}
		n.IsRead = false
		batch[i] = n
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, domain.Classify(err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, batch); err != nil {
			zap.L().Warn("failed to publish notifications", zap.Error(err), zap.Int("count", len(batch)))
		}
	}
	return batch, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

// MarkAsRead fails with ErrNotFound unless the notification belongs to userID.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return domain.Classify(err)
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	return nil
}
