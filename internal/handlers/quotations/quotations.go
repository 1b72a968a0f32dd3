package quotations

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/internal/service/quotationservice"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=quotations.go -destination=mock_quotations.go -package=quotations

type Service interface {
	Submit(ctx context.Context, in quotationservice.SubmitInput) (*domain.Quotation, error)
	ListForOrder(ctx context.Context, orderID, requesterID uuid.UUID) ([]domain.Quotation, error)
}

type QuotationHandler struct {
	quotationService Service
}

func New(quotationService Service) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

// SubmitQuotation godoc
//
//	@Summary		Quote for a pending order
//	@Description	The assessment fee is computed from the distance between provider and job site.
//	@Tags			Quotations
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SubmitQuotationRequestDTO	true	"Quotation"
//	@Success		201		{object}	dto.QuotationResponseDTO
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		409		{object}	utils.Response	"Order closed, already quoted or quote limit reached"
//	@Failure		422		{object}	utils.Response	"Validation error"
//	@Router			/api/quotations [post]
func (h *QuotationHandler) SubmitQuotation(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitQuotationRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	quotation, err := h.quotationService.Submit(r.Context(), quotationservice.SubmitInput{
		OrderID:    req.OrderID,
		ProviderID: auth.UserIDFromContext(r.Context()),
		ServiceFee: req.ServiceFee,
		Items:      req.Items,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewQuotationResponse(quotation))
}

// ListQuotations godoc
//
//	@Summary	List quotations for my order
//	@Tags		Quotations
//	@Security	BearerAuth
//	@Produce	json
//	@Param		orderID	path		string	true	"Order id"
//	@Success	200		{array}		dto.QuotationResponseDTO
//	@Failure	403		{object}	utils.Response	"Not the requester"
//	@Failure	404		{object}	utils.Response	"Order not found"
//	@Router		/api/quotations/{orderID} [get]
func (h *QuotationHandler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	orderID, err := utils.UUIDParam(r, "orderID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	quotations, err := h.quotationService.ListForOrder(r.Context(), orderID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewQuotationList(quotations))
}
