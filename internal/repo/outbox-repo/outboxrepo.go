package outboxrepo

import (
	"context"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxAttempts is the number of failed deliveries after which an event is parked as failed.
const MaxAttempts = 5

const (
	insertEventQuery = `
		INSERT INTO outbox_events (id, event_type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
	`
	// Rows left in processing by a crashed relay are reclaimed after a minute.
	claimBatchQuery = `
		WITH batch AS (
			SELECT id
			FROM outbox_events
			WHERE status = 'new'
			   OR (status = 'processing' AND updated_at < NOW() - INTERVAL '1 minute')
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events e
		SET status = 'processing', updated_at = NOW()
		FROM batch
		WHERE e.id = batch.id
		RETURNING e.id, e.event_type, e.payload, e.status, e.attempts, e.created_at, e.updated_at
	`
	markProcessedQuery = `
		UPDATE outbox_events
		SET status = 'processed', updated_at = NOW()
		WHERE id = $1
	`
	markFailedQuery = `
		UPDATE outbox_events
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'new' END,
		    updated_at = NOW()
		WHERE id = $1
	`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Add enqueues an event. Called inside the transaction that produced it.
func (r *Repository) Add(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := r.db.Exec(ctx, insertEventQuery, event.ID, event.EventType, []byte(event.Payload), event.Status, event.CreatedAt)
	if err != nil {
		zap.L().Error("can't enqueue outbox event", zap.Error(err), zap.String("type", event.EventType))
		return err
	}
	return nil
}

// FetchBatch claims up to limit pending events and marks them as processing.
func (r *Repository) FetchBatch(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, claimBatchQuery, limit)
	if err != nil {
		zap.L().Error("can't claim outbox events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			e       domain.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EventType, &payload, &e.Status, &e.Attempts, &e.CreatedAt, &e.UpdatedAt); err != nil {
			zap.L().Error("can't scan outbox event", zap.Error(err))
			return nil, err
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, markProcessedQuery, id); err != nil {
		zap.L().Error("can't mark outbox event processed", zap.Error(err))
		return err
	}
	return nil
}

// MarkFailed returns the event to the queue, or parks it once MaxAttempts is reached.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, markFailedQuery, id, MaxAttempts); err != nil {
		zap.L().Error("can't mark outbox event failed", zap.Error(err))
		return err
	}
	return nil
}
