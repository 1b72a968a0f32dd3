package orders

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/internal/service/orderservice"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=orders.go -destination=mock_orders.go -package=orders

type Service interface {
	Create(ctx context.Context, in orderservice.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Order, error)
	ListForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Order, error)
	AddProgressUpdate(ctx context.Context, orderID, providerID uuid.UUID, description string, photos []string) (*domain.ProgressUpdate, error)
	MarkWorkDone(ctx context.Context, orderID, providerID uuid.UUID) (*domain.Order, error)
	ConfirmArrival(ctx context.Context, orderID, providerID uuid.UUID, lat, lng float64) (float64, error)
}

type OrderHandler struct {
	orderService Service
}

func New(orderService Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.UUIDParam(r, "orderID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return uuid.Nil, false
	}
	return id, true
}

// CreateOrder godoc
//
//	@Summary		Create a service request
//	@Description	Creates a PENDING order. Orders with coordinates are dispatched to nearby providers.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateOrderRequestDTO	true	"Order details"
//	@Success		201		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Only service receivers create orders"
//	@Failure		422		{object}	utils.Response	"Validation error"
//	@Router			/api/orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, err := h.orderService.Create(r.Context(), orderservice.CreateInput{
		RequesterID:  auth.UserIDFromContext(r.Context()),
		CategoryID:   req.CategoryID,
		ServiceType:  req.ServiceType,
		Description:  req.Description,
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Photos:       req.Photos,
		ScheduledAt:  req.ScheduledAt,
		QuoteCount:   req.QuoteCount,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewOrderResponse(order))
}

// ListMyOrders godoc
//
//	@Summary	List orders I requested
//	@Tags		Orders
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}	dto.OrderResponseDTO
//	@Router		/api/orders [get]
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListForRequester(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderList(orders))
}

// ListProviderOrders godoc
//
//	@Summary	List orders assigned to me
//	@Tags		Orders
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}	dto.OrderResponseDTO
//	@Router		/api/orders/provider [get]
func (h *OrderHandler) ListProviderOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListForProvider(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderList(orders))
}

// GetOrder godoc
//
//	@Summary	Get an order with its progress updates
//	@Tags		Orders
//	@Security	BearerAuth
//	@Produce	json
//	@Param		orderID	path		string	true	"Order id"
//	@Success	200		{object}	dto.OrderResponseDTO
//	@Failure	403		{object}	utils.Response	"Not a party to the order"
//	@Failure	404		{object}	utils.Response	"Order not found"
//	@Router		/api/orders/{orderID} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.orderService.Get(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// AddProgressUpdate godoc
//
//	@Summary	Post a progress update
//	@Tags		Orders
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		orderID	path		string							true	"Order id"
//	@Param		request	body		dto.ProgressUpdateRequestDTO	true	"Update"
//	@Success	201		{object}	dto.ProgressUpdateDTO
//	@Failure	403		{object}	utils.Response	"Not the assigned provider"
//	@Failure	409		{object}	utils.Response	"Order is not in progress"
//	@Router		/api/orders/{orderID}/updates [post]
func (h *OrderHandler) AddProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req dto.ProgressUpdateRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	update, err := h.orderService.AddProgressUpdate(r.Context(), id, auth.UserIDFromContext(r.Context()), req.Description, req.Photos)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewProgressUpdate(update))
}

// MarkWorkDone godoc
//
//	@Summary	Mark the job as done
//	@Tags		Orders
//	@Security	BearerAuth
//	@Produce	json
//	@Param		orderID	path		string	true	"Order id"
//	@Success	200		{object}	dto.OrderResponseDTO
//	@Failure	403		{object}	utils.Response	"Not the assigned provider"
//	@Failure	409		{object}	utils.Response	"Order is not in progress"
//	@Router		/api/orders/{orderID}/complete [post]
func (h *OrderHandler) MarkWorkDone(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.orderService.MarkWorkDone(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// ConfirmArrival godoc
//
//	@Summary		Confirm arrival at the job site
//	@Description	Succeeds when the provider is within 200 meters of the order location.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		string							true	"Order id"
//	@Param			request	body		dto.ConfirmArrivalRequestDTO	true	"Current position"
//	@Success		200		{object}	dto.ConfirmArrivalResponseDTO
//	@Failure		422		{object}	utils.Response	"Too far from the job site"
//	@Router			/api/orders/{orderID}/confirm-arrival [post]
func (h *OrderHandler) ConfirmArrival(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req dto.ConfirmArrivalRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil || req.Latitude == nil || req.Longitude == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "GPS coordinates required")
		return
	}
	distance, err := h.orderService.ConfirmArrival(r.Context(), id, auth.UserIDFromContext(r.Context()), *req.Latitude, *req.Longitude)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ConfirmArrivalResponseDTO{
		Message:        "Arrival confirmed",
		DistanceMeters: distance,
	})
}
