package dispatchservice

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/pkg/geo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=dispatchservice.go -destination=mock_dispatchservice.go -package=dispatchservice

type OrderRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type ProfileRepo interface {
	ListProvidersByCategory(ctx context.Context, categoryID uuid.UUID) ([]domain.Profile, error)
}

type Notifier interface {
	Emit(ctx context.Context, notifications []domain.Notification) ([]domain.Notification, error)
}

type Service struct {
	orders       OrderRepo
	profiles     ProfileRepo
	notifier     Notifier
	radiusMeters float64
}

func New(orders OrderRepo, profiles ProfileRepo, notifier Notifier, radiusKm float64) *Service {
	return &Service{
		orders:       orders,
		profiles:     profiles,
		notifier:     notifier,
		radiusMeters: radiusKm * 1000,
	}
}

// FanOut alerts every provider of the order's category within the dispatch radius and
// returns how many alerts were written. All alerts go out as one batch.
func (s *Service) FanOut(ctx context.Context, orderID uuid.UUID) (int, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return 0, domain.Classify(err)
	}
	if order == nil {
		return 0, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if !order.HasLocation() || order.CategoryID == uuid.Nil {
		return 0, domain.Validationf("order %s has no location or category to dispatch on", orderID)
	}

	matches, err := s.match(ctx, *order.Latitude, *order.Longitude, order.CategoryID)
	if err != nil {
		return 0, err
	}

	alerts := make([]domain.Notification, 0, len(matches))
	for _, m := range matches {
		if m.ProviderID == order.RequesterID || m.DistanceMeters > s.radiusMeters {
			continue
		}
		id := order.ID
		alerts = append(alerts, domain.Notification{
			UserID:   m.ProviderID,
			Title:    "New Job Alert!",
			Message:  fmt.Sprintf("A new %s job is available nearby (%s). Check it out!", order.ServiceType, order.LocationName),
			Type:     domain.NotificationOrderAlert,
			Metadata: domain.NotificationMetadata{OrderID: &id},
		})
	}
	if len(alerts) == 0 {
		zap.L().Info("no providers in range", zap.String("orderID", orderID.String()))
		return 0, nil
	}

	if _, err := s.notifier.Emit(ctx, alerts); err != nil {
		return 0, err
	}
	zap.L().Info("dispatch sent", zap.String("orderID", orderID.String()), zap.Int("providers", len(alerts)))
	return len(alerts), nil
}

// SearchProviders lists every located provider of the category, nearest first.
// Equal distances are ordered by provider id.
func (s *Service) SearchProviders(ctx context.Context, lat, lng float64, categoryID uuid.UUID) ([]domain.ProviderMatch, error) {
	if categoryID == uuid.Nil {
		return nil, domain.Validationf("category is required")
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, domain.Validationf("coordinates %f,%f are out of range", lat, lng)
	}
	return s.match(ctx, lat, lng, categoryID)
}

func (s *Service) match(ctx context.Context, lat, lng float64, categoryID uuid.UUID) ([]domain.ProviderMatch, error) {
	profiles, err := s.profiles.ListProvidersByCategory(ctx, categoryID)
	if err != nil {
		return nil, domain.Classify(err)
	}

	matches := make([]domain.ProviderMatch, 0, len(profiles))
	for _, p := range profiles {
		if !p.HasLocation() {
			continue
		}
		meters := geo.Distance(lat, lng, *p.Latitude, *p.Longitude)
		matches = append(matches, domain.ProviderMatch{
			ProviderID:     p.UserID,
			FullName:       p.FullName,
			AvatarRef:      p.AvatarRef,
			LocationName:   p.LocationName,
			DistanceMeters: meters,
			DistanceKm:     geo.Kilometers(meters),
		})
	}

	slices.SortStableFunc(matches, func(a, b domain.ProviderMatch) int {
		if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
			return c
		}
		return bytes.Compare(a.ProviderID[:], b.ProviderID[:])
	})
	return matches, nil
}
