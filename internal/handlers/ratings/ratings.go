package ratings

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=ratings.go -destination=mock_ratings.go -package=ratings

type Service interface {
	Submit(ctx context.Context, orderID, raterID uuid.UUID, score int, comment string) (*domain.Rating, error)
	ListForUser(ctx context.Context, userID uuid.UUID) (*domain.RatingSummary, error)
}

type RatingHandler struct {
	ratingService Service
}

func New(ratingService Service) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRating godoc
//
//	@Summary		Rate the other party of a completed order
//	@Description	Score is 1 to 5. Each party rates an order once.
//	@Tags			Ratings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SubmitRatingRequestDTO	true	"Rating"
//	@Success		201		{object}	dto.RatingDTO
//	@Failure		403		{object}	utils.Response	"Not a party to the order"
//	@Failure		409		{object}	utils.Response	"Order not completed or already rated"
//	@Failure		422		{object}	utils.Response	"Score out of range"
//	@Router			/api/ratings [post]
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitRatingRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rating, err := h.ratingService.Submit(r.Context(), req.OrderID, auth.UserIDFromContext(r.Context()), req.Score, req.Comment)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewRating(rating))
}

// ListUserRatings godoc
//
//	@Summary	Ratings received by a user
//	@Tags		Ratings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userID	path		string	true	"User id"
//	@Success	200		{object}	dto.RatingSummaryDTO
//	@Router		/api/users/{userID}/ratings [get]
func (h *RatingHandler) ListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.UUIDParam(r, "userID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	summary, err := h.ratingService.ListForUser(r.Context(), userID)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewRatingSummary(summary))
}
