package dto

import (
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubmitQuotationRequestDTO struct {
	OrderID    uuid.UUID              `json:"orderId"`
	ServiceFee decimal.Decimal        `json:"serviceFee" swaggertype:"number" example:"3500"`
	Items      []domain.QuotationItem `json:"items,omitempty"`
}

type QuotationResponseDTO struct {
	ID            uuid.UUID               `json:"id"`
	OrderID       uuid.UUID               `json:"orderId"`
	ProviderID    uuid.UUID               `json:"providerId"`
	AssessmentFee decimal.Decimal         `json:"assessmentFee" swaggertype:"number"`
	ServiceFee    decimal.Decimal         `json:"serviceFee" swaggertype:"number"`
	Items         []domain.QuotationItem  `json:"items"`
	TotalAmount   decimal.Decimal         `json:"totalAmount" swaggertype:"number"`
	Status        string                  `json:"status" example:"PENDING"`
	CreatedAt     time.Time               `json:"createdAt"`
	Provider      *domain.ProviderSummary `json:"provider,omitempty"`
}

func NewQuotationResponse(q *domain.Quotation) QuotationResponseDTO {
	items := q.Items
	if items == nil {
		items = []domain.QuotationItem{}
	}
	return QuotationResponseDTO{
		ID:            q.ID,
		OrderID:       q.OrderID,
		ProviderID:    q.ProviderID,
		AssessmentFee: q.AssessmentFee,
		ServiceFee:    q.ServiceFee,
		Items:         items,
		TotalAmount:   q.TotalAmount,
		Status:        string(q.Status),
		CreatedAt:     q.CreatedAt,
		Provider:      q.Provider,
	}
}

func NewQuotationList(quotations []domain.Quotation) []QuotationResponseDTO {
	out := make([]QuotationResponseDTO, 0, len(quotations))
	for i := range quotations {
		out = append(out, NewQuotationResponse(&quotations[i]))
	}
	return out
}
