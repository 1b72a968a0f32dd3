package orderservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/pkg/geo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=orderservice.go -destination=mock_orderservice.go -package=orderservice

// ArrivalRadiusMeters is how close a provider must be to the job site to confirm arrival.
const ArrivalRadiusMeters = 200.0

var commitmentShare = decimal.RequireFromString("0.5")

type Repo interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Order, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Order, error)
	AddProgressUpdate(ctx context.Context, update *domain.ProgressUpdate) error
	ListProgressUpdates(ctx context.Context, orderID uuid.UUID) ([]domain.ProgressUpdate, error)
}

type QuotationRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuotationStatus) error
	RejectOthers(ctx context.Context, orderID, acceptedID uuid.UUID) error
}

type OutboxRepo interface {
	Add(ctx context.Context, event *domain.OutboxEvent) error
}

type CategoryRepo interface {
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Ledger interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, entry domain.LedgerEntry) (*domain.Transaction, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)
}

type Notifier interface {
	Emit(ctx context.Context, notifications []domain.Notification) ([]domain.Notification, error)
}

type Deps struct {
	Orders     Repo
	Quotations QuotationRepo
	Outbox     OutboxRepo
	Categories CategoryRepo
	Ledger     Ledger
	Notifier   Notifier
	TxManager  pg.TXManager
}

type Service struct {
	repo           Repo
	quotations     QuotationRepo
	outbox         OutboxRepo
	categories     CategoryRepo
	ledger         Ledger
	notifier       Notifier
	txManager      pg.TXManager
	commissionRate decimal.Decimal
	now            func() time.Time
}

func New(deps Deps, commissionRate decimal.Decimal) *Service {
	return &Service{
		repo:           deps.Orders,
		quotations:     deps.Quotations,
		outbox:         deps.Outbox,
		categories:     deps.Categories,
		ledger:         deps.Ledger,
		notifier:       deps.Notifier,
		txManager:      deps.TxManager,
		commissionRate: commissionRate,
		now:            time.Now,
	}
}

type CreateInput struct {
	RequesterID  uuid.UUID
	CategoryID   uuid.UUID
	ServiceType  string
	Description  string
	LocationName string
	Latitude     *float64
	Longitude    *float64
	Photos       []string
	ScheduledAt  *time.Time
	QuoteCount   int
}

// Create stores a PENDING order. Orders with a location also get an order.created
// outbox event in the same transaction; dispatch happens later from the relay.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}
	exists, err := s.categories.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if !exists {
		return nil, domain.Validationf("unknown category %s", in.CategoryID)
	}

	now := s.now()
	order := &domain.Order{
		ID:           uuid.New(),
		RequesterID:  in.RequesterID,
		CategoryID:   in.CategoryID,
		ServiceType:  in.ServiceType,
		Description:  in.Description,
		LocationName: in.LocationName,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Photos:       in.Photos,
		ScheduledAt:  in.ScheduledAt,
		QuoteCount:   in.QuoteCount,
		Status:       domain.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if order.Photos == nil {
		order.Photos = []string{}
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		if !order.HasLocation() {
			return nil
		}
		payload, err := json.Marshal(domain.OrderCreatedPayload{OrderID: order.ID})
		if err != nil {
			return err
		}
		return s.outbox.Add(ctx, &domain.OutboxEvent{
			ID:        uuid.New(),
			EventType: domain.EventOrderCreated,
			Payload:   payload,
			Status:    domain.OutboxStatusNew,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	zap.L().Info("order created",
		zap.String("orderID", order.ID.String()),
		zap.String("requesterID", order.RequesterID.String()),
		zap.Bool("dispatch", order.HasLocation()))
	return order, nil
}

func validateCreate(in *CreateInput) error {
	if in.CategoryID == uuid.Nil {
		return domain.Validationf("category is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.Validationf("latitude and longitude must be given together")
	}
	if in.Latitude != nil && !geo.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return domain.Validationf("coordinates %f,%f are out of range", *in.Latitude, *in.Longitude)
	}
	if in.QuoteCount == 0 {
		in.QuoteCount = 1
	}
	if in.QuoteCount < 0 {
		return domain.Validationf("quote count must be at least 1")
	}
	return nil
}

// CommitmentFor is the escrow share of a quotation total.
func CommitmentFor(total decimal.Decimal) decimal.Decimal {
	return total.Mul(commitmentShare).Round(2)
}

// AcceptAndPay accepts the quotation and moves the commitment into escrow. The debit,
// the quotation statuses and the order transition commit together or not at all.
// A zero commitment means the caller did not state one.
func (s *Service) AcceptAndPay(ctx context.Context, orderID, requesterID, quotationID uuid.UUID, commitment decimal.Decimal) (*domain.Order, error) {
	var order *domain.Order
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.lockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.RequesterID != requesterID {
			return fmt.Errorf("%w: order %s belongs to another requester", domain.ErrUnauthorized, orderID)
		}
		if !order.Status.CanTransition(domain.OrderStatusInProgress) {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
		}

		quotation, err := s.quotations.FindByID(ctx, quotationID)
		if err != nil {
			return err
		}
		if quotation == nil || quotation.OrderID != orderID {
			return fmt.Errorf("%w: quotation %s for order %s", domain.ErrNotFound, quotationID, orderID)
		}
		if quotation.Status != domain.QuotationStatusPending {
			return fmt.Errorf("%w: quotation %s is %s", domain.ErrInvalidTransition, quotationID, quotation.Status)
		}

		expected := CommitmentFor(quotation.TotalAmount)
		if !commitment.IsZero() && !commitment.Equal(expected) {
			return domain.Validationf("commitment %s does not match %s", commitment.StringFixed(2), expected.StringFixed(2))
		}

		wallet, err := s.ledger.GetOrCreateWallet(ctx, requesterID)
		if err != nil {
			return err
		}
		_, err = s.ledger.Debit(ctx, wallet.ID, expected, domain.LedgerEntry{
			Type:           domain.TransactionPaymentEscrow,
			Status:         domain.TransactionStatusHeld,
			Description:    fmt.Sprintf("Commitment fee for %s", describe(order)),
			RelatedOrderID: &order.ID,
		})
		if err != nil {
			return err
		}

		if err := s.quotations.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusAccepted); err != nil {
			return err
		}
		if err := s.quotations.RejectOthers(ctx, orderID, quotation.ID); err != nil {
			return err
		}

		providerID, acceptedID := quotation.ProviderID, quotation.ID
		order.ServiceProviderID = &providerID
		order.AcceptedQuotationID = &acceptedID
		order.CommitmentAmount = &expected
		order.Status = domain.OrderStatusInProgress
		order.UpdatedAt = s.now()
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	zap.L().Info("quotation accepted",
		zap.String("orderID", orderID.String()),
		zap.String("quotationID", quotationID.String()),
		zap.String("commitment", order.CommitmentAmount.StringFixed(2)))
	s.notify(ctx, *order.ServiceProviderID, "Quotation Accepted",
		fmt.Sprintf("Your quotation for %s was accepted and paid. You can start the job.", describe(order)), order.ID)
	return order, nil
}

func (s *Service) AddProgressUpdate(ctx context.Context, orderID, providerID uuid.UUID, description string, photos []string) (*domain.ProgressUpdate, error) {
	if description == "" {
		return nil, domain.Validationf("description is required")
	}
	if photos == nil {
		photos = []string{}
	}

	var (
		order  *domain.Order
		update *domain.ProgressUpdate
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.lockAssigned(ctx, orderID, providerID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusInProgress {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
		}
		update = &domain.ProgressUpdate{
			ID:          uuid.New(),
			OrderID:     orderID,
			Description: description,
			Photos:      photos,
			CreatedAt:   s.now(),
		}
		return s.repo.AddProgressUpdate(ctx, update)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	s.notify(ctx, order.RequesterID, "Work Update",
		fmt.Sprintf("New progress update on your %s order.", describe(order)), order.ID)
	return update, nil
}

func (s *Service) MarkWorkDone(ctx context.Context, orderID, providerID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.lockAssigned(ctx, orderID, providerID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(domain.OrderStatusWorkDone) {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
		}
		order.Status = domain.OrderStatusWorkDone
		order.UpdatedAt = s.now()
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	zap.L().Info("work done", zap.String("orderID", orderID.String()))
	s.notify(ctx, order.RequesterID, "Job Completed!",
		"Provider has marked the job as done. Please review and pay balance.", order.ID)
	return order, nil
}

// FinalSettle pays the remainder of the accepted quotation to the provider, net of
// commission, and completes the order. Only a WORK_DONE order can be settled, so a
// repeated call fails instead of paying twice.
func (s *Service) FinalSettle(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, *domain.TransferResult, error) {
	var (
		order  *domain.Order
		result *domain.TransferResult
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.lockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.RequesterID != requesterID {
			return fmt.Errorf("%w: order %s belongs to another requester", domain.ErrUnauthorized, orderID)
		}
		if !order.Status.CanTransition(domain.OrderStatusCompleted) {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
		}
		if order.AcceptedQuotationID == nil || order.ServiceProviderID == nil {
			return fmt.Errorf("order %s has no accepted quotation", orderID)
		}

		quotation, err := s.quotations.FindByID(ctx, *order.AcceptedQuotationID)
		if err != nil {
			return err
		}
		if quotation == nil {
			return fmt.Errorf("accepted quotation %s of order %s is missing", *order.AcceptedQuotationID, orderID)
		}
		commitment := CommitmentFor(quotation.TotalAmount)
		if order.CommitmentAmount != nil {
			commitment = *order.CommitmentAmount
		}
		remainder := quotation.TotalAmount.Sub(commitment)

		if remainder.IsPositive() {
			from, err := s.ledger.GetOrCreateWallet(ctx, requesterID)
			if err != nil {
				return err
			}
			to, err := s.ledger.GetOrCreateWallet(ctx, *order.ServiceProviderID)
			if err != nil {
				return err
			}
			result, err = s.ledger.Transfer(ctx, domain.TransferRequest{
				FromWalletID:   from.ID,
				ToWalletID:     to.ID,
				Amount:         remainder,
				CommissionRate: s.commissionRate,
				Debit: domain.LedgerEntry{
					Type:           domain.TransactionPaymentFinal,
					Status:         domain.TransactionStatusCompleted,
					Description:    fmt.Sprintf("Final payment for %s", describe(order)),
					RelatedOrderID: &order.ID,
				},
				Credit: domain.LedgerEntry{
					Type:           domain.TransactionPayoutEarnings,
					Status:         domain.TransactionStatusCompleted,
					Description:    fmt.Sprintf("Earnings for %s", describe(order)),
					RelatedOrderID: &order.ID,
				},
			})
			if err != nil {
				return err
			}
		} else {
			result = &domain.TransferResult{Debited: decimal.Zero, Credited: decimal.Zero, Commission: decimal.Zero}
		}

		order.Status = domain.OrderStatusCompleted
		order.UpdatedAt = s.now()
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, nil, domain.Classify(err)
	}

	zap.L().Info("order settled",
		zap.String("orderID", orderID.String()),
		zap.String("paid", result.Debited.StringFixed(2)),
		zap.String("commission", result.Commission.StringFixed(2)))
	s.notify(ctx, *order.ServiceProviderID, "Payment Released",
		fmt.Sprintf("KES %s has been credited to your wallet for %s.", result.Credited.StringFixed(2), describe(order)), order.ID)
	return order, result, nil
}

// ConfirmArrival checks that the assigned provider stands within ArrivalRadiusMeters of
// the job site and returns the measured distance. The order itself is not changed.
func (s *Service) ConfirmArrival(ctx context.Context, orderID, providerID uuid.UUID, lat, lng float64) (float64, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return 0, domain.Validationf("GPS coordinates required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return 0, domain.Classify(err)
	}
	if order == nil {
		return 0, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if !order.IsProvider(providerID) {
		return 0, fmt.Errorf("%w: order %s is assigned to another provider", domain.ErrUnauthorized, orderID)
	}
	if order.Status != domain.OrderStatusInProgress {
		return 0, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
	}
	if !order.HasLocation() {
		return 0, domain.Validationf("order does not have a set location")
	}

	distance := geo.Distance(lat, lng, *order.Latitude, *order.Longitude)
	if distance > ArrivalRadiusMeters {
		return distance, fmt.Errorf("%w: %.0fm away", domain.ErrTooFarFromSite, distance)
	}
	zap.L().Info("arrival confirmed", zap.String("orderID", orderID.String()), zap.Float64("distance", distance))
	return distance, nil
}

// Get returns the order with its progress updates. Only the two parties may read it.
func (s *Service) Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if !order.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: not a party to order %s", domain.ErrUnauthorized, orderID)
	}
	updates, err := s.repo.ListProgressUpdates(ctx, orderID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	order.ProgressUpdates = updates
	if order.ProgressUpdates == nil {
		order.ProgressUpdates = []domain.ProgressUpdate{}
	}
	return order, nil
}

func (s *Service) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Order, error) {
	orders, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Order, error) {
	orders, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Service) lockOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}

func (s *Service) lockAssigned(ctx context.Context, orderID, providerID uuid.UUID) (*domain.Order, error) {
	order, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsProvider(providerID) {
		return nil, fmt.Errorf("%w: order %s is assigned to another provider", domain.ErrUnauthorized, orderID)
	}
	return order, nil
}

// notify runs after commit. A failed notification never undoes the transition.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message string, orderID uuid.UUID) {
	_, err := s.notifier.Emit(ctx, []domain.Notification{{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     domain.NotificationInfo,
		Metadata: domain.NotificationMetadata{OrderID: &orderID},
	}})
	if err != nil {
		zap.L().Warn("failed to send notification",
			zap.Error(err), zap.String("orderID", orderID.String()), zap.String("title", title))
	}
}

func describe(order *domain.Order) string {
	if order.ServiceType != "" {
		return order.ServiceType
	}
	return "order " + order.ID.String()
}
