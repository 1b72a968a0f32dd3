package dto

import (
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
)

type ProfileResponseDTO struct {
	UserID       uuid.UUID   `json:"userId"`
	FullName     string      `json:"fullName"`
	Phone        string      `json:"phone"`
	Role         string      `json:"role"`
	AvatarRef    string      `json:"avatarRef,omitempty"`
	LocationName string      `json:"locationName,omitempty"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
	CategoryIDs  []uuid.UUID `json:"categoryIds"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func NewProfileResponse(p *domain.Profile) ProfileResponseDTO {
	ids := p.CategoryIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ProfileResponseDTO{
		UserID:       p.UserID,
		FullName:     p.FullName,
		Phone:        p.Phone,
		Role:         string(p.Role),
		AvatarRef:    p.AvatarRef,
		LocationName: p.LocationName,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		CategoryIDs:  ids,
		UpdatedAt:    p.UpdatedAt,
	}
}

type UpdateProfileRequestDTO struct {
	FullName     *string  `json:"fullName,omitempty" example:"Jane Wanjiru"`
	AvatarRef    *string  `json:"avatarRef,omitempty"`
	LocationName *string  `json:"locationName,omitempty" example:"Westlands"`
	Latitude     *float64 `json:"latitude,omitempty" example:"-1.2676"`
	Longitude    *float64 `json:"longitude,omitempty" example:"36.8108"`
}

type SetCategoriesRequestDTO struct {
	CategoryIDs []uuid.UUID `json:"categoryIds"`
}
