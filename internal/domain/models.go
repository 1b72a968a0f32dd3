package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleServiceReceiver Role = "SERVICE_RECEIVER"
	RoleServiceProvider Role = "SERVICE_PROVIDER"
)

func (r Role) Valid() bool {
	return r == RoleServiceReceiver || r == RoleServiceProvider
}

type User struct {
	ID           uuid.UUID `db:"id"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

type Profile struct {
	UserID       uuid.UUID   `db:"user_id"`
	FullName     string      `db:"full_name"`
	Phone        string      `db:"phone"`
	Role         Role        `db:"role"`
	AvatarRef    string      `db:"avatar_ref"`
	LocationName string      `db:"location_name"`
	Latitude     *float64    `db:"latitude"`
	Longitude    *float64    `db:"longitude"`
	CategoryIDs  []uuid.UUID `db:"category_ids"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

// HasLocation reports whether both coordinates are known.
func (p *Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

func (p *Profile) Offers(categoryID uuid.UUID) bool {
	for _, id := range p.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

type Category struct {
	ID   uuid.UUID `db:"id"   json:"id"`
	Name string    `db:"name" json:"name"`
}

// ProviderMatch is a provider annotated with its distance from a point.
type ProviderMatch struct {
	ProviderID     uuid.UUID `json:"providerId"`
	FullName       string    `json:"fullName"`
	AvatarRef      string    `json:"avatarRef,omitempty"`
	LocationName   string    `json:"locationName,omitempty"`
	DistanceMeters float64   `json:"distanceMeters"`
	DistanceKm     float64   `json:"distanceKm"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusWorkDone   OrderStatus = "WORK_DONE"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
)

var orderTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusInProgress,
	OrderStatusInProgress: OrderStatusWorkDone,
	OrderStatusWorkDone:   OrderStatusCompleted,
}

// CanTransition reports whether to is the single legal successor of s.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	next, ok := orderTransitions[s]
	return ok && next == to
}

type Order struct {
	ID                  uuid.UUID        `db:"id"`
	RequesterID         uuid.UUID        `db:"requester_id"`
	ServiceProviderID   *uuid.UUID       `db:"service_provider_id"`
	CategoryID          uuid.UUID        `db:"category_id"`
	ServiceType         string           `db:"service_type"`
	Description         string           `db:"description"`
	LocationName        string           `db:"location_name"`
	Latitude            *float64         `db:"latitude"`
	Longitude           *float64         `db:"longitude"`
	Photos              []string         `db:"photos"`
	ScheduledAt         *time.Time       `db:"scheduled_at"`
	QuoteCount          int              `db:"quote_count"`
	Status              OrderStatus      `db:"status"`
	AcceptedQuotationID *uuid.UUID       `db:"accepted_quotation_id"`
	CommitmentAmount    *decimal.Decimal `db:"commitment_amount"`
	CreatedAt           time.Time        `db:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at"`
	ProgressUpdates     []ProgressUpdate `db:"-"`
}

func (o *Order) HasLocation() bool {
	return o.Latitude != nil && o.Longitude != nil
}

func (o *Order) IsProvider(userID uuid.UUID) bool {
	return o.ServiceProviderID != nil && *o.ServiceProviderID == userID
}

func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.RequesterID == userID || o.IsProvider(userID)
}

type ProgressUpdate struct {
	ID          uuid.UUID `db:"id"`
	OrderID     uuid.UUID `db:"order_id"`
	Description string    `db:"description"`
	Photos      []string  `db:"photos"`
	CreatedAt   time.Time `db:"created_at"`
}

type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "PENDING"
	QuotationStatusAccepted QuotationStatus = "ACCEPTED"
	QuotationStatusRejected QuotationStatus = "REJECTED"
)

type QuotationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (i QuotationItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Quotation struct {
	ID            uuid.UUID        `db:"id"`
	OrderID       uuid.UUID        `db:"order_id"`
	ProviderID    uuid.UUID        `db:"provider_id"`
	AssessmentFee decimal.Decimal  `db:"assessment_fee"`
	ServiceFee    decimal.Decimal  `db:"service_fee"`
	Items         []QuotationItem  `db:"items"`
	TotalAmount   decimal.Decimal  `db:"total_amount"`
	Status        QuotationStatus  `db:"status"`
	CreatedAt     time.Time        `db:"created_at"`
	Provider      *ProviderSummary `db:"-"`
}

// ProviderSummary is the public part of a provider profile shown next to a quotation.
type ProviderSummary struct {
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	AvatarRef string `json:"avatarRef,omitempty"`
}

type Wallet struct {
	ID        uuid.UUID       `db:"id"`
	UserID    uuid.UUID       `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	Currency  string          `db:"currency"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

const DefaultCurrency = "KES"

type TransactionType string

const (
	TransactionDeposit        TransactionType = "DEPOSIT"
	TransactionPaymentEscrow  TransactionType = "PAYMENT_ESCROW"
	TransactionPaymentFinal   TransactionType = "PAYMENT_FINAL"
	TransactionPayoutEarnings TransactionType = "PAYOUT_EARNINGS"
)

type TransactionStatus string

const (
	TransactionStatusHeld      TransactionStatus = "HELD"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an append-only ledger line. Amount is signed: credits are positive.
type Transaction struct {
	ID             uuid.UUID         `db:"id"`
	WalletID       uuid.UUID         `db:"wallet_id"`
	Amount         decimal.Decimal   `db:"amount"`
	Type           TransactionType   `db:"type"`
	Status         TransactionStatus `db:"status"`
	Description    string            `db:"description"`
	RelatedOrderID *uuid.UUID        `db:"related_order_id"`
	CreatedAt      time.Time         `db:"created_at"`
}

// LedgerEntry describes the transaction line a ledger movement should produce.
type LedgerEntry struct {
	Type           TransactionType
	Status         TransactionStatus
	Description    string
	RelatedOrderID *uuid.UUID
}

type Commission struct {
	ID        uuid.UUID       `db:"id"`
	OrderID   *uuid.UUID      `db:"order_id"`
	Amount    decimal.Decimal `db:"amount"`
	Rate      decimal.Decimal `db:"rate"`
	CreatedAt time.Time       `db:"created_at"`
}

type TransferRequest struct {
	FromWalletID   uuid.UUID
	ToWalletID     uuid.UUID
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
	Debit          LedgerEntry
	Credit         LedgerEntry
}

type TransferResult struct {
	Debited    decimal.Decimal
	Credited   decimal.Decimal
	Commission decimal.Decimal
}

type Statement struct {
	Wallet       *Wallet
	Transactions []Transaction
}

type NotificationType string

const (
	NotificationOrderAlert NotificationType = "ORDER_ALERT"
	NotificationInfo       NotificationType = "INFO"
)

type NotificationMetadata struct {
	OrderID *uuid.UUID `json:"orderId,omitempty"`
}

type Notification struct {
	ID        uuid.UUID            `db:"id"        json:"id"`
	UserID    uuid.UUID            `db:"user_id"   json:"userId"`
	Title     string               `db:"title"     json:"title"`
	Message   string               `db:"message"   json:"message"`
	Type      NotificationType     `db:"type"      json:"type"`
	Metadata  NotificationMetadata `db:"metadata"  json:"metadata"`
	IsRead    bool                 `db:"is_read"   json:"isRead"`
	CreatedAt time.Time            `db:"created_at" json:"createdAt"`
}

type Rating struct {
	ID        uuid.UUID `db:"id"`
	OrderID   uuid.UUID `db:"order_id"`
	RaterID   uuid.UUID `db:"rater_id"`
	RateeID   uuid.UUID `db:"ratee_id"`
	Score     int       `db:"score"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

type RatingSummary struct {
	UserID  uuid.UUID
	Average float64
	Count   int
	Ratings []Rating
}

type OutboxStatus string

const (
	OutboxStatusNew        OutboxStatus = "new"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

const EventOrderCreated = "order.created"

type OutboxEvent struct {
	ID        uuid.UUID       `db:"id"`
	EventType string          `db:"event_type"`
	Payload   json.RawMessage `db:"payload"`
	Status    OutboxStatus    `db:"status"`
	Attempts  int             `db:"attempts"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type OrderCreatedPayload struct {
	OrderID uuid.UUID `json:"orderId"`
}
