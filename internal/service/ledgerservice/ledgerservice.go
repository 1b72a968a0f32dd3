package ledgerservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=ledgerservice.go -destination=mock_ledgerservice.go -package=ledgerservice

const depositDescription = "Mobile Money Deposit"

var ledgerMovements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "akalimo",
	Subsystem: "ledger",
	Name:      "movements_total",
	Help:      "Ledger transactions written, by transaction type.",
}, []string{"type"})

type Repo interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error
	AddTransaction(ctx context.Context, transaction *domain.Transaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
	SumTransactions(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	AddCommission(ctx context.Context, commission *domain.Commission) error
}

// Service is the only writer of wallet balances. Every movement locks the wallet row,
// updates the cached balance and appends a transaction in the same database transaction.
type Service struct {
	repo      Repo
	txManager pg.TXManager
	now       func() time.Time
}

func New(repo Repo, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       time.Now,
	}
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first access.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if wallet != nil {
		return wallet, nil
	}

	now := s.now()
	err = s.repo.Create(ctx, &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  domain.DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	// A concurrent request may have won the insert; read back whichever row exists.
	wallet, err = s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if wallet == nil {
		return nil, domain.Classify(fmt.Errorf("wallet for user %s vanished after create", userID))
	}
	zap.L().Info("wallet created", zap.String("userID", userID.String()), zap.String("walletID", wallet.ID.String()))
	return wallet, nil
}

func (s *Service) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var transaction *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.lock(ctx, walletID)
		if err != nil {
			return err
		}
		transaction, err = s.credit(ctx, wallet, amount, entry)
		return err
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return transaction, nil
}

func (s *Service) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var transaction *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.lock(ctx, walletID)
		if err != nil {
			return err
		}
		transaction, err = s.debit(ctx, wallet, amount, entry)
		return err
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return transaction, nil
}

// Transfer debits the full amount from the source wallet and credits the destination with
// the amount net of commission. The platform keeps the difference.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, domain.Validationf("commission rate %s is outside [0, 1)", req.CommissionRate)
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, domain.Validationf("cannot transfer to the same wallet")
	}

	credited := req.Amount.Mul(decimal.NewFromInt(1).Sub(req.CommissionRate)).Round(2)
	result := &domain.TransferResult{
		Debited:    req.Amount,
		Credited:   credited,
		Commission: req.Amount.Sub(credited),
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		from, to, err := s.lockPair(ctx, req.FromWalletID, req.ToWalletID)
		if err != nil {
			return err
		}
		if _, err := s.debit(ctx, from, result.Debited, req.Debit); err != nil {
			return err
		}
		if result.Credited.IsPositive() {
			if _, err := s.credit(ctx, to, result.Credited, req.Credit); err != nil {
				return err
			}
		}
		if result.Commission.IsPositive() {
			err := s.repo.AddCommission(ctx, &domain.Commission{
				ID:        uuid.New(),
				OrderID:   req.Debit.RelatedOrderID,
				Amount:    result.Commission,
				Rate:      req.CommissionRate,
				CreatedAt: s.now(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	zap.L().Info("transfer completed",
		zap.String("from", req.FromWalletID.String()),
		zap.String("to", req.ToWalletID.String()),
		zap.String("amount", result.Debited.StringFixed(2)),
		zap.String("commission", result.Commission.StringFixed(2)))
	return result, nil
}

// Deposit tops up the user's wallet. There is no real payment gateway behind it.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var wallet *domain.Wallet
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		existing, err := s.GetOrCreateWallet(ctx, userID)
		if err != nil {
			return err
		}
		wallet, err = s.lock(ctx, existing.ID)
		if err != nil {
			return err
		}
		_, err = s.credit(ctx, wallet, amount, domain.LedgerEntry{
			Type:        domain.TransactionDeposit,
			Status:      domain.TransactionStatusCompleted,
			Description: depositDescription,
		})
		return err
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return wallet, nil
}

// Statement returns the wallet with its transactions, newest first.
func (s *Service) Statement(ctx context.Context, userID uuid.UUID) (*domain.Statement, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return &domain.Statement{Wallet: wallet, Transactions: transactions}, nil
}

// Reconcile checks the cached balance against the sum of the wallet's transactions.
func (s *Service) Reconcile(ctx context.Context, walletID uuid.UUID) error {
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		return domain.Classify(err)
	}
	if wallet == nil {
		return fmt.Errorf("%w: wallet %s", domain.ErrNotFound, walletID)
	}
	sum, err := s.repo.SumTransactions(ctx, walletID)
	if err != nil {
		return domain.Classify(err)
	}
	if !sum.Equal(wallet.Balance) {
		zap.L().Error("ledger drift detected",
			zap.String("walletID", walletID.String()),
			zap.String("balance", wallet.Balance.StringFixed(2)),
			zap.String("transactions", sum.StringFixed(2)))
		return fmt.Errorf("%w: balance %s, transactions %s", domain.ErrLedgerDrift, wallet.Balance.StringFixed(2), sum.StringFixed(2))
	}
	return nil
}

func (s *Service) lock(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.repo.FindByIDForUpdate(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: wallet %s", domain.ErrNotFound, walletID)
	}
	return wallet, nil
}

// lockPair locks both wallets in ascending id order so two opposite transfers cannot deadlock.
func (s *Service) lockPair(ctx context.Context, fromID, toID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	firstID, secondID := fromID, toID
	if bytes.Compare(firstID[:], secondID[:]) > 0 {
		firstID, secondID = secondID, firstID
	}
	first, err := s.lock(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.lock(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}
	if first.ID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *Service) credit(ctx context.Context, wallet *domain.Wallet, amount decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error) {
	return s.apply(ctx, wallet, amount, entry)
}

func (s *Service) debit(ctx context.Context, wallet *domain.Wallet, amount decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error) {
	if wallet.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s, required %s",
			domain.ErrInsufficientFunds, wallet.Balance.StringFixed(2), amount.StringFixed(2))
	}
	return s.apply(ctx, wallet, amount.Neg(), entry)
}

// apply moves the balance by a signed delta and appends the matching transaction.
func (s *Service) apply(ctx context.Context, wallet *domain.Wallet, delta decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error) {
	now := s.now()
	balance := wallet.Balance.Add(delta)
	if err := s.repo.UpdateBalance(ctx, wallet.ID, balance, now); err != nil {
		return nil, err
	}
	transaction := &domain.Transaction{
		ID:             uuid.New(),
		WalletID:       wallet.ID,
		Amount:         delta,
		Type:           entry.Type,
		Status:         entry.Status,
		Description:    entry.Description,
		RelatedOrderID: entry.RelatedOrderID,
		CreatedAt:      now,
	}
	if err := s.repo.AddTransaction(ctx, transaction); err != nil {
		return nil, err
	}
	wallet.Balance = balance
	wallet.UpdatedAt = now
	ledgerMovements.WithLabelValues(string(entry.Type)).Inc()
	return transaction, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimal places", domain.ErrInvalidAmount, amount.String())
	}
	return nil
}
