package dto

import (
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
)

type SubmitRatingRequestDTO struct {
	OrderID uuid.UUID `json:"orderId"`
	Score   int       `json:"score" example:"5"`
	Comment string    `json:"comment,omitempty" example:"Quick and tidy"`
}

type RatingDTO struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	RaterID   uuid.UUID `json:"raterId"`
	RateeID   uuid.UUID `json:"rateeId"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type RatingSummaryDTO struct {
	UserID  uuid.UUID   `json:"userId"`
	Average float64     `json:"average" example:"4.5"`
	Count   int         `json:"count"`
	Ratings []RatingDTO `json:"ratings"`
}

func NewRating(r *domain.Rating) RatingDTO {
	return RatingDTO{
		ID:        r.ID,
		OrderID:   r.OrderID,
		RaterID:   r.RaterID,
		RateeID:   r.RateeID,
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func NewRatingSummary(s *domain.RatingSummary) RatingSummaryDTO {
	resp := RatingSummaryDTO{UserID: s.UserID, Average: s.Average, Count: s.Count, Ratings: make([]RatingDTO, 0, len(s.Ratings))}
	for i := range s.Ratings {
		resp.Ratings = append(resp.Ratings, NewRating(&s.Ratings[i]))
	}
	return resp
}
