package profilerepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	insertProfileQuery = `
		INSERT INTO profiles (user_id, full_name, phone, role, avatar_ref, location_name, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	findProfileQuery = `
		SELECT user_id, full_name, phone, role, avatar_ref, location_name, latitude, longitude, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	findCategoryIDsQuery = `
		SELECT category_id
		FROM provider_categories
		WHERE provider_id = $1
		ORDER BY category_id
	`
	updateProfileQuery = `
		UPDATE profiles
		SET full_name = $1, avatar_ref = $2, location_name = $3, latitude = $4, longitude = $5, updated_at = $6
		WHERE user_id = $7
	`
	deleteCategoriesQuery = `DELETE FROM provider_categories WHERE provider_id = $1`
	insertCategoriesQuery = `
		INSERT INTO provider_categories (provider_id, category_id)
		SELECT $1, unnest($2::uuid[])
	`
	providersByCategoryQuery = `
		SELECT p.user_id, p.full_name, p.phone, p.role, p.avatar_ref, p.location_name, p.latitude, p.longitude, p.updated_at
		FROM profiles p
		JOIN provider_categories pc ON pc.provider_id = p.user_id
		WHERE pc.category_id = $1
		  AND p.role = 'SERVICE_PROVIDER'
		  AND p.latitude IS NOT NULL
		  AND p.longitude IS NOT NULL
		ORDER BY p.user_id
	`
	listCategoriesQuery = `SELECT id, name FROM categories ORDER BY name`
	categoryExistsQuery = `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func (r *Repository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx, insertProfileQuery,
		p.UserID, p.FullName, p.Phone, p.Role, p.AvatarRef, p.LocationName, p.Latitude, p.Longitude, p.UpdatedAt)
	if err != nil {
		zap.L().Error("can't create profile", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx, findProfileQuery, userID).
		Scan(&p.UserID, &p.FullName, &p.Phone, &p.Role, &p.AvatarRef, &p.LocationName, &p.Latitude, &p.Longitude, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find profile", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.Query(ctx, findCategoryIDsQuery, userID)
	if err != nil {
		zap.L().Error("can't get provider categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan provider category", zap.Error(err))
			return nil, err
		}
		p.CategoryIDs = append(p.CategoryIDs, id)
	}
	return &p, rows.Err()
}

func (r *Repository) Update(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx, updateProfileQuery,
		p.FullName, p.AvatarRef, p.LocationName, p.Latitude, p.Longitude, p.UpdatedAt, p.UserID)
	if err != nil {
		zap.L().Error("can't update profile", zap.Error(err))
		return err
	}
	return nil
}

// SetCategories replaces the category list a provider serves.
func (r *Repository) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error {
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := r.db.Exec(ctx, deleteCategoriesQuery, userID); err != nil {
			zap.L().Error("can't clear provider categories", zap.Error(err))
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		if _, err := r.db.Exec(ctx, insertCategoriesQuery, userID, categoryIDs); err != nil {
			zap.L().Error("can't insert provider categories", zap.Error(err))
			return err
		}
		return nil
	})
}

func (r *Repository) ListProvidersByCategory(ctx context.Context, categoryID uuid.UUID) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, providersByCategoryQuery, categoryID)
	if err != nil {
		zap.L().Error("can't get providers by category", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		err := rows.Scan(&p.UserID, &p.FullName, &p.Phone, &p.Role, &p.AvatarRef, &p.LocationName, &p.Latitude, &p.Longitude, &p.UpdatedAt)
		if err != nil {
			zap.L().Error("can't scan provider row", zap.Error(err))
			return nil, err
		}
		p.CategoryIDs = []uuid.UUID{categoryID}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesQuery)
	if err != nil {
		zap.L().Error("can't get categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			zap.L().Error("can't scan category row", zap.Error(err))
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, categoryExistsQuery, id).Scan(&exists); err != nil {
		zap.L().Error("can't check category", zap.Error(err))
		return false, err
	}
	return exists, nil
}
