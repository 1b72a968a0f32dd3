package quotationrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const (
	insertQuotationQuery = `
		INSERT INTO quotations (id, order_id, provider_id, assessment_fee, service_fee, items, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	findQuotationQuery = `
		SELECT id, order_id, provider_id, assessment_fee, service_fee, items, total_amount, status, created_at
		FROM quotations
		WHERE id = $1
	`
	quotationsByOrderQuery = `
		SELECT q.id, q.order_id, q.provider_id, q.assessment_fee, q.service_fee, q.items, q.total_amount, q.status, q.created_at,
		       COALESCE(p.full_name, ''), COALESCE(p.phone, ''), COALESCE(p.avatar_ref, '')
		FROM quotations q
		LEFT JOIN profiles p ON p.user_id = q.provider_id
		WHERE q.order_id = $1
		ORDER BY q.created_at, q.id
	`
	countByOrderQuery       = `SELECT COUNT(*) FROM quotations WHERE order_id = $1`
	existsForProviderQuery  = `SELECT EXISTS(SELECT 1 FROM quotations WHERE order_id = $1 AND provider_id = $2)`
	updateStatusQuery       = `UPDATE quotations SET status = $1 WHERE id = $2`
	rejectOtherPendingQuery = `
		UPDATE quotations
		SET status = 'REJECTED'
		WHERE order_id = $1 AND id <> $2 AND status = 'PENDING'
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

// Create stores a quotation. A second quotation from the same provider for the same order
// fails with domain.ErrDuplicateQuotation.
func (r *Repository) Create(ctx context.Context, q *domain.Quotation) error {
	items, err := json.Marshal(nonNilItems(q.Items))
	if err != nil {
		return fmt.Errorf("encode quotation items: %w", err)
	}
	_, err = r.db.Exec(ctx, insertQuotationQuery,
		q.ID, q.OrderID, q.ProviderID, q.AssessmentFee, q.ServiceFee, items, q.TotalAmount, q.Status, q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateQuotation
		}
		zap.L().Error("can't save quotation", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var (
		q     domain.Quotation
		items []byte
	)
	err := r.db.QueryRow(ctx, findQuotationQuery, id).Scan(
		&q.ID, &q.OrderID, &q.ProviderID, &q.AssessmentFee, &q.ServiceFee, &items, &q.TotalAmount, &q.Status, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find quotation", zap.Error(err))
		return nil, err
	}
	if err := decodeItems(items, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByOrder returns the order's quotations in submission order together with
// the public part of each provider's profile.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Quotation, error) {
	rows, err := r.db.Query(ctx, quotationsByOrderQuery, orderID)
	if err != nil {
		zap.L().Error("can't list quotations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var quotations []domain.Quotation
	for rows.Next() {
		var (
			q       domain.Quotation
			items   []byte
			summary domain.ProviderSummary
		)
		err := rows.Scan(&q.ID, &q.OrderID, &q.ProviderID, &q.AssessmentFee, &q.ServiceFee, &items, &q.TotalAmount,
			&q.Status, &q.CreatedAt, &summary.FullName, &summary.Phone, &summary.AvatarRef)
		if err != nil {
			zap.L().Error("can't scan quotation", zap.Error(err))
			return nil, err
		}
		if err := decodeItems(items, &q); err != nil {
			return nil, err
		}
		q.Provider = &summary
		quotations = append(quotations, q)
	}
	return quotations, rows.Err()
}

func (r *Repository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countByOrderQuery, orderID).Scan(&count); err != nil {
		zap.L().Error("can't count quotations", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) ExistsForProvider(ctx context.Context, orderID, providerID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsForProviderQuery, orderID, providerID).Scan(&exists); err != nil {
		zap.L().Error("can't check quotation", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuotationStatus) error {
	_, err := r.db.Exec(ctx, updateStatusQuery, status, id)
	if err != nil {
		zap.L().Error("can't update quotation status", zap.Error(err))
		return err
	}
	return nil
}

// RejectOthers rejects every still pending quotation of the order except the accepted one.
func (r *Repository) RejectOthers(ctx context.Context, orderID, acceptedID uuid.UUID) error {
	_, err := r.db.Exec(ctx, rejectOtherPendingQuery, orderID, acceptedID)
	if err != nil {
		zap.L().Error("can't reject quotations", zap.Error(err))
		return err
	}
	return nil
}

func nonNilItems(items []domain.QuotationItem) []domain.QuotationItem {
	if items == nil {
		return []domain.QuotationItem{}
	}
	return items
}

func decodeItems(raw []byte, q *domain.Quotation) error {
	q.Items = []domain.QuotationItem{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &q.Items); err != nil {
		zap.L().Error("can't decode quotation items", zap.Error(err))
		return fmt.Errorf("decode quotation items: %w", err)
	}
	return nil
}
