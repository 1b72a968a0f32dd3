package ratingrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const (
	insertRatingQuery = `
		INSERT INTO ratings (id, order_id, rater_id, ratee_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	ratingsByRateeQuery = `
		SELECT id, order_id, rater_id, ratee_id, score, comment, created_at
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at DESC, id DESC
	`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Create stores the rating. A rater can rate an order once; a repeat yields domain.ErrAlreadyRated.
func (r *Repository) Create(ctx context.Context, rating *domain.Rating) error {
	_, err := r.db.Exec(ctx, insertRatingQuery,
		rating.ID, rating.OrderID, rating.RaterID, rating.RateeID, rating.Score, rating.Comment, rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyRated
		}
		zap.L().Error("can't save rating", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByRatee(ctx context.Context, userID uuid.UUID) ([]domain.Rating, error) {
	rows, err := r.db.Query(ctx, ratingsByRateeQuery, userID)
	if err != nil {
		zap.L().Error("can't list ratings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rating domain.Rating
		err := rows.Scan(&rating.ID, &rating.OrderID, &rating.RaterID, &rating.RateeID, &rating.Score, &rating.Comment, &rating.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan rating", zap.Error(err))
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}
