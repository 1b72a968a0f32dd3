package walletrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	insertWalletQuery = `
		INSERT INTO wallets (id, user_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	walletByUserQuery = `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`
	walletByIDQuery = `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`
	walletByIDForUpdateQuery = `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`
	updateBalanceQuery = `
		UPDATE wallets
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`
	insertTransactionQuery = `
		INSERT INTO transactions (id, wallet_id, amount, type, status, description, related_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	listTransactionsQuery = `
		SELECT id, wallet_id, amount, type, status, description, related_order_id, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
	`
	sumTransactionsQuery = `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE wallet_id = $1
	`
	insertCommissionQuery = `
		INSERT INTO platform_commissions (id, order_id, amount, rate, created_at)
		VALUES ($1, $2, $3, $4, $5)
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

// Create inserts the wallet unless the user already owns one.
func (r *Repository) Create(ctx context.Context, w *domain.Wallet) error {
	_, err := r.db.Exec(ctx, insertWalletQuery, w.ID, w.UserID, w.Currency, w.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create wallet", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.findOne(ctx, walletByUserQuery, userID)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.findOne(ctx, walletByIDQuery, id)
}

// FindByIDForUpdate locks the wallet row until the surrounding transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.findOne(ctx, walletByIDForUpdateQuery, id)
}

func (r *Repository) findOne(ctx context.Context, query string, arg uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	err := r.db.QueryRow(ctx, query, arg).Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	return &w, nil
}

func (r *Repository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error {
	_, err := r.db.Exec(ctx, updateBalanceQuery, balance, updatedAt, id)
	if err != nil {
		zap.L().Error("failed to update wallet balance", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) AddTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := r.db.Exec(ctx, insertTransactionQuery,
		t.ID, t.WalletID, t.Amount, t.Type, t.Status, t.Description, t.RelatedOrderID, t.CreatedAt)
	if err != nil {
		zap.L().Error("failed to insert transaction", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, listTransactionsQuery, walletID)
	if err != nil {
		zap.L().Error("failed to get transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.Status, &t.Description, &t.RelatedOrderID, &t.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan transaction", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *Repository) SumTransactions(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, sumTransactionsQuery, walletID).Scan(&sum); err != nil {
		zap.L().Error("failed to sum transactions", zap.Error(err))
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *Repository) AddCommission(ctx context.Context, c *domain.Commission) error {
	_, err := r.db.Exec(ctx, insertCommissionQuery, c.ID, c.OrderID, c.Amount, c.Rate, c.CreatedAt)
	if err != nil {
		zap.L().Error("failed to record commission", zap.Error(err))
		return err
	}
	return nil
}
