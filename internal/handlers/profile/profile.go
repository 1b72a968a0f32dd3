package profile

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/internal/service/profileservice"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=profile.go -destination=mock_profile.go -package=profile

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, upd profileservice.ProfileUpdate) (*domain.Profile, error)
	SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) (*domain.Profile, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type Search interface {
	SearchProviders(ctx context.Context, lat, lng float64, categoryID uuid.UUID) ([]domain.ProviderMatch, error)
}

type ProfileHandler struct {
	profileService Service
	search         Search
}

func New(profileService Service, search Search) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		search:         search,
	}
}

// GetProfile godoc
//
//	@Summary	Get own profile
//	@Tags		Profile
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	dto.ProfileResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	404	{object}	utils.Response	"Profile not found"
//	@Router		/api/profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Get(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProfileResponse(profile))
}

// UpdateProfile godoc
//
//	@Summary		Update own profile
//	@Description	Only the fields present in the body change. Coordinates must be sent together.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.UpdateProfileRequestDTO	true	"Fields to change"
//	@Success		200		{object}	dto.ProfileResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		422		{object}	utils.Response	"Validation error"
//	@Router			/api/profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile, err := h.profileService.Update(r.Context(), auth.UserIDFromContext(r.Context()), profileservice.ProfileUpdate{
		FullName:     req.FullName,
		AvatarRef:    req.AvatarRef,
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProfileResponse(profile))
}

// SetCategories godoc
//
//	@Summary	Set the categories a provider serves
//	@Tags		Profile
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.SetCategoriesRequestDTO	true	"Category ids"
//	@Success	200		{object}	dto.ProfileResponseDTO
//	@Failure	403		{object}	utils.Response	"Not a provider"
//	@Failure	422		{object}	utils.Response	"Unknown category"
//	@Router		/api/profile/categories [put]
func (h *ProfileHandler) SetCategories(w http.ResponseWriter, r *http.Request) {
	var req dto.SetCategoriesRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile, err := h.profileService.SetCategories(r.Context(), auth.UserIDFromContext(r.Context()), req.CategoryIDs)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProfileResponse(profile))
}

// ListCategories godoc
//
//	@Summary	List service categories
//	@Tags		Profile
//	@Produce	json
//	@Success	200	{array}	domain.Category
//	@Router		/api/categories [get]
func (h *ProfileHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.profileService.Categories(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, categories)
}

// SearchProviders godoc
//
//	@Summary		Find providers near a point
//	@Description	Providers of the category with a known location, nearest first.
//	@Tags			Providers
//	@Security		BearerAuth
//	@Produce		json
//	@Param			lat			query	number	true	"Latitude"
//	@Param			lng			query	number	true	"Longitude"
//	@Param			categoryId	query	string	true	"Category id"
//	@Success		200	{array}		domain.ProviderMatch
//	@Failure		400	{object}	utils.Response	"Missing or malformed query parameters"
//	@Failure		422	{object}	utils.Response	"Coordinates out of range"
//	@Router			/api/providers/search [get]
func (h *ProfileHandler) SearchProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	categoryID, catErr := uuid.Parse(q.Get("categoryId"))
	if latErr != nil || lngErr != nil || catErr != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "lat, lng and categoryId are required")
		return
	}

	matches, err := h.search.SearchProviders(r.Context(), lat, lng, categoryID)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if matches == nil {
		matches = []domain.ProviderMatch{}
	}
	utils.RespondWithJSON(w, http.StatusOK, matches)
}
