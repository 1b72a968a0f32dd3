package notificationrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	notificationsByUserQuery = `
		SELECT id, user_id, title, message, type, metadata, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	markAsReadQuery = `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
	`
)

var (
	notificationsTable = pgx.Identifier{"notifications"}
	copyColumns        = []string{"id", "user_id", "title", "message", "type", "metadata", "is_read", "created_at"}
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateBatch writes all notifications with a single COPY.
func (r *Repository) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(notifications))
	for _, n := range notifications {
		metadata, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("encode notification metadata: %w", err)
		}
		rows = append(rows, []any{n.ID, n.UserID, n.Title, n.Message, n.Type, metadata, n.IsRead, n.CreatedAt})
	}

	copied, err := r.db.CopyFrom(ctx, notificationsTable, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		zap.L().Error("can't save notifications", zap.Error(err))
		return err
	}
	zap.L().Debug("notifications saved", zap.Int64("count", copied))
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, notificationsByUserQuery, userID)
	if err != nil {
		zap.L().Error("can't list notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			n        domain.Notification
			metadata []byte
		)
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &metadata, &n.IsRead, &n.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan notification", zap.Error(err))
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				zap.L().Error("can't decode notification metadata", zap.Error(err))
				return nil, fmt.Errorf("decode notification metadata: %w", err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkAsRead flags the notification as read. It reports false when no notification
// with that id belongs to the user.
func (r *Repository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, markAsReadQuery, id, userID)
	if err != nil {
		zap.L().Error("can't mark notification as read", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
