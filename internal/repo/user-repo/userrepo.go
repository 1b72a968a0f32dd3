package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	uniqueViolation = "23505"

	userColumns = "id, phone, password_hash, role, created_at"
)

var ErrPhoneTaken = fmt.Errorf("%w: phone already registered", domain.ErrAlreadyExists)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

// FindByPhone returns nil without an error when no account uses the phone.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE phone = $1", phone)

	u, err := scanUser(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		zap.L().Error("user lookup failed", zap.String("phone", phone), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, u.ID, u.Phone, u.PasswordHash, u.Role, u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrPhoneTaken
		}
		zap.L().Error("user insert failed", zap.Stringer("user_id", u.ID), zap.Error(err))
		return err
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
