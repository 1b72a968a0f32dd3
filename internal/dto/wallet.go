package dto

import (
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositRequestDTO struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"number" example:"10000"`
}

type WalletResponseDTO struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"number" example:"6000"`
	Currency  string          `json:"currency" example:"KES"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TransactionDTO struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"number" example:"-4000"`
	Type           string          `json:"type" example:"PAYMENT_ESCROW"`
	Status         string          `json:"status" example:"HELD"`
	Description    string          `json:"description"`
	RelatedOrderID *uuid.UUID      `json:"relatedOrderId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type StatementResponseDTO struct {
	Wallet       WalletResponseDTO `json:"wallet"`
	Transactions []TransactionDTO  `json:"transactions"`
}

func NewWalletResponse(w *domain.Wallet) WalletResponseDTO {
	return WalletResponseDTO{ID: w.ID, Balance: w.Balance, Currency: w.Currency, UpdatedAt: w.UpdatedAt}
}

func NewStatementResponse(s *domain.Statement) StatementResponseDTO {
	resp := StatementResponseDTO{
		Wallet:       NewWalletResponse(s.Wallet),
		Transactions: make([]TransactionDTO, 0, len(s.Transactions)),
	}
	for _, t := range s.Transactions {
		resp.Transactions = append(resp.Transactions, TransactionDTO{
			ID:             t.ID,
			Amount:         t.Amount,
			Type:           string(t.Type),
			Status:         string(t.Status),
			Description:    t.Description,
			RelatedOrderID: t.RelatedOrderID,
			CreatedAt:      t.CreatedAt,
		})
	}
	return resp
}
