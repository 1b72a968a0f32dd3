package orderrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const orderColumns = `id, requester_id, service_provider_id, category_id, service_type, description, location_name,
	latitude, longitude, photos, scheduled_at, quote_count, status, accepted_quotation_id, commitment_amount,
	created_at, updated_at`

const (
	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	findOrderQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	findOrderForUpdateQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	updateOrderQuery = `
		UPDATE orders
		SET status = $1, service_provider_id = $2, accepted_quotation_id = $3, commitment_amount = $4, updated_at = $5
		WHERE id = $6
	`
	ordersByRequesterQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	ordersByProviderQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE service_provider_id = $1
		ORDER BY created_at DESC
	`
	insertProgressUpdateQuery = `
		INSERT INTO order_progress_updates (id, order_id, description, photos, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	progressUpdatesQuery = `
		SELECT id, order_id, description, photos, created_at
		FROM order_progress_updates
		WHERE order_id = $1
		ORDER BY created_at ASC
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

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.RequesterID, &o.ServiceProviderID, &o.CategoryID, &o.ServiceType, &o.Description,
		&o.LocationName, &o.Latitude, &o.Longitude, &o.Photos, &o.ScheduledAt, &o.QuoteCount, &o.Status,
		&o.AcceptedQuotationID, &o.CommitmentAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	photos := o.Photos
	if photos == nil {
		photos = []string{}
	}
	_, err := r.db.Exec(ctx, insertOrderQuery,
		o.ID, o.RequesterID, o.ServiceProviderID, o.CategoryID, o.ServiceType, o.Description, o.LocationName,
		o.Latitude, o.Longitude, photos, o.ScheduledAt, o.QuoteCount, o.Status, o.AcceptedQuotationID,
		o.CommitmentAmount, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save order", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, findOrderQuery, id)
}

// FindByIDForUpdate locks the order row until the surrounding transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, findOrderForUpdateQuery, id)
}

func (r *Repository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *Repository) Update(ctx context.Context, o *domain.Order) error {
	_, err := r.db.Exec(ctx, updateOrderQuery,
		o.Status, o.ServiceProviderID, o.AcceptedQuotationID, o.CommitmentAmount, o.UpdatedAt, o.ID)
	if err != nil {
		zap.L().Error("failed to update order", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, ordersByRequesterQuery, requesterID)
}

func (r *Repository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, ordersByProviderQuery, providerID)
}

func (r *Repository) list(ctx context.Context, query string, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *Repository) AddProgressUpdate(ctx context.Context, u *domain.ProgressUpdate) error {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	_, err := r.db.Exec(ctx, insertProgressUpdateQuery, u.ID, u.OrderID, u.Description, photos, u.CreatedAt)
	if err != nil {
		zap.L().Error("can't save progress update", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListProgressUpdates(ctx context.Context, orderID uuid.UUID) ([]domain.ProgressUpdate, error) {
	rows, err := r.db.Query(ctx, progressUpdatesQuery, orderID)
	if err != nil {
		zap.L().Error("can't get progress updates", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var updates []domain.ProgressUpdate
	for rows.Next() {
		var u domain.ProgressUpdate
		if err := rows.Scan(&u.ID, &u.OrderID, &u.Description, &u.Photos, &u.CreatedAt); err != nil {
			zap.L().Error("can't scan progress update", zap.Error(err))
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}
