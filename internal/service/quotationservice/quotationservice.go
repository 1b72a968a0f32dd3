package quotationservice

import (
	"context"
	"fmt"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/pkg/geo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=quotationservice.go -destination=mock_quotationservice.go -package=quotationservice

type Repo interface {
	Create(ctx context.Context, quotation *domain.Quotation) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Quotation, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	ExistsForProvider(ctx context.Context, orderID, providerID uuid.UUID) (bool, error)
}

type OrderRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type ProfileRepo interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type Notifier interface {
	Emit(ctx context.Context, notifications []domain.Notification) ([]domain.Notification, error)
}

// Pricing holds the tunable parts of the assessment fee.
type Pricing struct {
	BaseAssessmentFee decimal.Decimal
	CostPerKm         decimal.Decimal
	// EnforceLimit turns the order's requested quote count into a hard cap.
	EnforceLimit bool
}

type Service struct {
	repo      Repo
	orders    OrderRepo
	profiles  ProfileRepo
	notifier  Notifier
	txManager pg.TXManager
	pricing   Pricing
	now       func() time.Time
}

func New(repo Repo, orders OrderRepo, profiles ProfileRepo, notifier Notifier, txManager pg.TXManager, pricing Pricing) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		profiles:  profiles,
		notifier:  notifier,
		txManager: txManager,
		pricing:   pricing,
		now:       time.Now,
	}
}

type SubmitInput struct {
	OrderID    uuid.UUID
	ProviderID uuid.UUID
	ServiceFee decimal.Decimal
	Items      []domain.QuotationItem
}

// AssessmentFee is the base fee plus the per-km travel charge, rounded to whole units.
// Without coordinates on either side only the base fee applies.
func (s *Service) AssessmentFee(order *domain.Order, provider *domain.Profile) decimal.Decimal {
	fee := s.pricing.BaseAssessmentFee
	if !order.HasLocation() || !provider.HasLocation() {
		return fee
	}
	meters := geo.Distance(*order.Latitude, *order.Longitude, *provider.Latitude, *provider.Longitude)
	travel := decimal.NewFromFloat(geo.Kilometers(meters)).Mul(s.pricing.CostPerKm).Round(0)
	return fee.Add(travel)
}

// Total is assessment fee + service fee + the sum of all item lines.
func Total(assessmentFee, serviceFee decimal.Decimal, items []domain.QuotationItem) decimal.Decimal {
	total := assessmentFee.Add(serviceFee)
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Quotation, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}
	items := in.Items
	if items == nil {
		items = []domain.QuotationItem{}
	}

	var (
		order     *domain.Order
		quotation *domain.Quotation
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		// The order row lock serialises submissions so the quote cap holds.
		order, err = s.orders.FindByIDForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: order %s", domain.ErrNotFound, in.OrderID)
		}
		profile, err := s.profiles.FindByUserID(ctx, in.ProviderID)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("%w: provider profile %s", domain.ErrNotFound, in.ProviderID)
		}
		if order.RequesterID == in.ProviderID {
			return fmt.Errorf("%w: cannot quote on your own order", domain.ErrUnauthorized)
		}
		if order.Status != domain.OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, in.OrderID, order.Status)
		}

		quoted, err := s.repo.ExistsForProvider(ctx, in.OrderID, in.ProviderID)
		if err != nil {
			return err
		}
		if quoted {
			return domain.ErrDuplicateQuotation
		}
		if s.pricing.EnforceLimit {
			count, err := s.repo.CountByOrder(ctx, in.OrderID)
			if err != nil {
				return err
			}
			if count >= order.QuoteCount {
				return fmt.Errorf("%w: order %s asked for %d", domain.ErrQuotationLimitReached, in.OrderID, order.QuoteCount)
			}
		}

		fee := s.AssessmentFee(order, profile)
		quotation = &domain.Quotation{
			ID:            uuid.New(),
			OrderID:       in.OrderID,
			ProviderID:    in.ProviderID,
			AssessmentFee: fee,
			ServiceFee:    in.ServiceFee,
			Items:         items,
			TotalAmount:   Total(fee, in.ServiceFee, items),
			Status:        domain.QuotationStatusPending,
			CreatedAt:     s.now(),
			Provider: &domain.ProviderSummary{
				FullName:  profile.FullName,
				Phone:     profile.Phone,
				AvatarRef: profile.AvatarRef,
			},
		}
		return s.repo.Create(ctx, quotation)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}

	zap.L().Info("quotation submitted",
		zap.String("orderID", in.OrderID.String()),
		zap.String("providerID", in.ProviderID.String()),
		zap.String("total", quotation.TotalAmount.StringFixed(2)))

	orderID := order.ID
	_, err = s.notifier.Emit(ctx, []domain.Notification{{
		UserID:   order.RequesterID,
		Title:    "New Quotation",
		Message:  fmt.Sprintf("You received a new quotation of KES %s for your %s order.", quotation.TotalAmount.StringFixed(2), order.ServiceType),
		Type:     domain.NotificationInfo,
		Metadata: domain.NotificationMetadata{OrderID: &orderID},
	}})
	if err != nil {
		zap.L().Warn("failed to notify requester about quotation", zap.Error(err), zap.String("orderID", orderID.String()))
	}
	return quotation, nil
}

// ListForOrder returns the order's quotations in submission order. Only the requester may see them.
func (s *Service) ListForOrder(ctx context.Context, orderID, requesterID uuid.UUID) ([]domain.Quotation, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if order.RequesterID != requesterID {
		return nil, fmt.Errorf("%w: order %s belongs to another requester", domain.ErrUnauthorized, orderID)
	}
	quotations, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if quotations == nil {
		quotations = []domain.Quotation{}
	}
	return quotations, nil
}

func validateSubmit(in SubmitInput) error {
	if in.ServiceFee.IsNegative() {
		return domain.Validationf("service fee cannot be negative")
	}
	if !in.ServiceFee.Equal(in.ServiceFee.Round(2)) {
		return domain.Validationf("service fee has more than two decimal places")
	}
	for i, item := range in.Items {
		switch {
		case item.Name == "":
			return domain.Validationf("item %d has no name", i+1)
		case item.Quantity <= 0:
			return domain.Validationf("item %q must have a positive quantity", item.Name)
		case item.UnitPrice.IsNegative():
			return domain.Validationf("item %q has a negative price", item.Name)
		case !item.UnitPrice.Equal(item.UnitPrice.Round(2)):
			return domain.Validationf("item %q price has more than two decimal places", item.Name)
		}
	}
	return nil
}
