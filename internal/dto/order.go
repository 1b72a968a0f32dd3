package dto

import (
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequestDTO struct {
	CategoryID   uuid.UUID  `json:"categoryId"`
	ServiceType  string     `json:"serviceType" example:"Plumbing"`
	Description  string     `json:"description" example:"Leaking kitchen sink"`
	LocationName string     `json:"locationName" example:"Kilimani"`
	Latitude     *float64   `json:"latitude,omitempty" example:"-1.2921"`
	Longitude    *float64   `json:"longitude,omitempty" example:"36.8219"`
	Photos       []string   `json:"photos,omitempty"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	QuoteCount   int        `json:"quoteCount,omitempty" example:"3"`
}

type ProgressUpdateRequestDTO struct {
	Description string   `json:"description" example:"Replaced the trap"`
	Photos      []string `json:"photos,omitempty"`
}

type ConfirmArrivalRequestDTO struct {
	Latitude  *float64 `json:"latitude" example:"-1.2921"`
	Longitude *float64 `json:"longitude" example:"36.8219"`
}

type ConfirmArrivalResponseDTO struct {
	Message        string  `json:"message"`
	DistanceMeters float64 `json:"distanceMeters"`
}

type PayOrderRequestDTO struct {
	OrderID          uuid.UUID       `json:"orderId"`
	QuotationID      uuid.UUID       `json:"quotationId"`
	CommitmentAmount decimal.Decimal `json:"commitmentAmount" swaggertype:"number" example:"4000"`
}

type PayFinalRequestDTO struct {
	OrderID uuid.UUID `json:"orderId"`
}

type PayFinalResponseDTO struct {
	Message    string          `json:"message"`
	OrderID    uuid.UUID       `json:"orderId"`
	Paid       decimal.Decimal `json:"paid" swaggertype:"number"`
	Credited   decimal.Decimal `json:"credited" swaggertype:"number"`
	Commission decimal.Decimal `json:"commission" swaggertype:"number"`
}

type ProgressUpdateDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderResponseDTO struct {
	ID                  uuid.UUID           `json:"id"`
	RequesterID         uuid.UUID           `json:"requesterId"`
	ServiceProviderID   *uuid.UUID          `json:"serviceProviderId,omitempty"`
	CategoryID          uuid.UUID           `json:"categoryId"`
	ServiceType         string              `json:"serviceType"`
	Description         string              `json:"description"`
	LocationName        string              `json:"locationName"`
	Latitude            *float64            `json:"latitude,omitempty"`
	Longitude           *float64            `json:"longitude,omitempty"`
	Photos              []string            `json:"photos"`
	ScheduledAt         *time.Time          `json:"scheduledAt,omitempty"`
	QuoteCount          int                 `json:"quoteCount"`
	Status              string              `json:"status" example:"PENDING"`
	AcceptedQuotationID *uuid.UUID          `json:"acceptedQuotationId,omitempty"`
	CommitmentAmount    *decimal.Decimal    `json:"commitmentAmount,omitempty" swaggertype:"number"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	ProgressUpdates     []ProgressUpdateDTO `json:"progressUpdates,omitempty"`
}

func NewOrderResponse(o *domain.Order) OrderResponseDTO {
	resp := OrderResponseDTO{
		ID:                  o.ID,
		RequesterID:         o.RequesterID,
		ServiceProviderID:   o.ServiceProviderID,
		CategoryID:          o.CategoryID,
		ServiceType:         o.ServiceType,
		Description:         o.Description,
		LocationName:        o.LocationName,
		Latitude:            o.Latitude,
		Longitude:           o.Longitude,
		Photos:              nonNil(o.Photos),
		ScheduledAt:         o.ScheduledAt,
		QuoteCount:          o.QuoteCount,
		Status:              string(o.Status),
		AcceptedQuotationID: o.AcceptedQuotationID,
		CommitmentAmount:    o.CommitmentAmount,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, u := range o.ProgressUpdates {
		resp.ProgressUpdates = append(resp.ProgressUpdates, NewProgressUpdate(&u))
	}
	return resp
}

func NewOrderList(orders []domain.Order) []OrderResponseDTO {
	out := make([]OrderResponseDTO, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

func NewProgressUpdate(u *domain.ProgressUpdate) ProgressUpdateDTO {
	return ProgressUpdateDTO{ID: u.ID, Description: u.Description, Photos: nonNil(u.Photos), CreatedAt: u.CreatedAt}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
