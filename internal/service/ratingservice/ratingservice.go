package ratingservice

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=ratingservice.go -destination=mock_ratingservice.go -package=ratingservice

const (
	MinScore = 1
	MaxScore = 5
)

type Repo interface {
	Create(ctx context.Context, rating *domain.Rating) error
	ListByRatee(ctx context.Context, userID uuid.UUID) ([]domain.Rating, error)
}

type OrderRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type Service struct {
	repo   Repo
	orders OrderRepo
	now    func() time.Time
}

func New(repo Repo, orders OrderRepo) *Service {
	return &Service{
		repo:   repo,
		orders: orders,
		now:    time.Now,
	}
}

// Submit rates the other party of a completed order. Each party rates an order once.
func (s *Service) Submit(ctx context.Context, orderID, raterID uuid.UUID, score int, comment string) (*domain.Rating, error) {
	if score < MinScore || score > MaxScore {
		return nil, domain.Validationf("score must be between %d and %d", MinScore, MaxScore)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if !order.IsParticipant(raterID) {
		return nil, fmt.Errorf("%w: not a party to order %s", domain.ErrUnauthorized, orderID)
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
	}

	rateeID := order.RequesterID
	if raterID == order.RequesterID {
		rateeID = *order.ServiceProviderID
	}
	rating := &domain.Rating{
		ID:        uuid.New(),
		OrderID:   orderID,
		RaterID:   raterID,
		RateeID:   rateeID,
		Score:     score,
		Comment:   comment,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, rating); err != nil {
		return nil, domain.Classify(err)
	}
	zap.L().Info("order rated", zap.String("orderID", orderID.String()), zap.Int("score", score))
	return rating, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error) {
	ratings, err := s.repo.ListByRatee(ctx, userID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	summary := &domain.RatingSummary{UserID: userID, Count: len(ratings), Ratings: ratings}
	if summary.Ratings == nil {
		summary.Ratings = []domain.Rating{}
	}
	if len(ratings) > 0 {
		total := 0
		for _, r := range ratings {
			total += r.Score
		}
		summary.Average = math.Round(float64(total)/float64(len(ratings))*100) / 100
	}
	return summary, nil
}
