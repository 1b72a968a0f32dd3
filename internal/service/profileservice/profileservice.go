package profileservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/pkg/geo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=profileservice.go -destination=mock_profileservice.go -package=profileservice

type Repo interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProfileUpdate carries the fields a user may change. Nil fields are left as they are.
type ProfileUpdate struct {
	FullName     *string
	AvatarRef    *string
	LocationName *string
	Latitude     *float64
	Longitude    *float64
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func New(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, userID)
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.Profile, error) {
	if (upd.Latitude == nil) != (upd.Longitude == nil) {
		return nil, domain.Validationf("latitude and longitude must be set together")
	}
	if upd.Latitude != nil && !geo.ValidCoordinates(*upd.Latitude, *upd.Longitude) {
		return nil, domain.Validationf("coordinates out of range")
	}
	if upd.FullName != nil && strings.TrimSpace(*upd.FullName) == "" {
		return nil, domain.Validationf("full name must not be empty")
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		profile.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.AvatarRef != nil {
		profile.AvatarRef = *upd.AvatarRef
	}
	if upd.LocationName != nil {
		profile.LocationName = *upd.LocationName
	}
	if upd.Latitude != nil {
		profile.Latitude, profile.Longitude = upd.Latitude, upd.Longitude
	}
	profile.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, domain.Classify(err)
	}
	return profile, nil
}

// SetCategories replaces the categories a provider offers.
func (s *Service) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) (*domain.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role != domain.RoleServiceProvider {
		return nil, fmt.Errorf("%w: only providers offer categories", domain.ErrUnauthorized)
	}

	seen := make(map[uuid.UUID]struct{}, len(categoryIDs))
	ids := make([]uuid.UUID, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		exists, err := s.repo.CategoryExists(ctx, id)
		if err != nil {
			return nil, domain.Classify(err)
		}
		if !exists {
			return nil, domain.Validationf("unknown category %s", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if err := s.repo.SetCategories(ctx, userID, ids); err != nil {
		return nil, domain.Classify(err)
	}
	zap.L().Info("provider categories updated", zap.String("userID", userID.String()), zap.Int("count", len(ids)))
	profile.CategoryIDs = ids
	return profile, nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}
