package wallet

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=wallet.go -destination=mock_wallet.go -package=wallet

type Ledger interface {
	Statement(ctx context.Context, userID uuid.UUID) (*domain.Statement, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error)
}

type Payments interface {
	AcceptAndPay(ctx context.Context, orderID, requesterID, quotationID uuid.UUID, commitment decimal.Decimal) (*domain.Order, error)
	FinalSettle(ctx context.Context, orderID, requesterID uuid.UUID) (*domain.Order, *domain.TransferResult, error)
}

type WalletHandler struct {
	ledger   Ledger
	payments Payments
}

func New(ledger Ledger, payments Payments) *WalletHandler {
	return &WalletHandler{
		ledger:   ledger,
		payments: payments,
	}
}

// GetWallet godoc
//
//	@Summary		Get wallet balance and history
//	@Description	Returns the caller's wallet with its transactions, newest first. The wallet is created on first access.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.StatementResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	statement, err := h.ledger.Statement(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewStatementResponse(statement))
}

// Deposit godoc
//
//	@Summary	Top up the wallet
//	@Tags		Wallet
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.DepositRequestDTO	true	"Amount"
//	@Success	200		{object}	dto.WalletResponseDTO
//	@Failure	422		{object}	utils.Response	"Amount must be positive"
//	@Router		/api/wallet/deposit [post]
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	wallet, err := h.ledger.Deposit(r.Context(), auth.UserIDFromContext(r.Context()), req.Amount)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWalletResponse(wallet))
}

// PayOrder godoc
//
//	@Summary		Accept a quotation and pay the commitment
//	@Description	Moves half of the quotation total into escrow and starts the job. Send an Idempotency-Key header to make retries safe.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Retry key"
//	@Param			request			body		dto.PayOrderRequestDTO	true	"Order and quotation"
//	@Success		200				{object}	dto.OrderResponseDTO
//	@Failure		402				{object}	utils.Response	"Insufficient funds"
//	@Failure		403				{object}	utils.Response	"Not the requester"
//	@Failure		404				{object}	utils.Response	"Order or quotation not found"
//	@Failure		409				{object}	utils.Response	"Order already accepted"
//	@Failure		422				{object}	utils.Response	"Commitment mismatch"
//	@Router			/api/wallet/pay-order [post]
func (h *WalletHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.PayOrderRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, err := h.payments.AcceptAndPay(r.Context(), req.OrderID, auth.UserIDFromContext(r.Context()), req.QuotationID, req.CommitmentAmount)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// PayFinal godoc
//
//	@Summary		Pay the balance and release funds to the provider
//	@Description	Charges the remaining half and transfers it minus commission to the provider.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Retry key"
//	@Param			request			body		dto.PayFinalRequestDTO	true	"Order"
//	@Success		200				{object}	dto.PayFinalResponseDTO
//	@Failure		402				{object}	utils.Response	"Insufficient funds"
//	@Failure		403				{object}	utils.Response	"Not the requester"
//	@Failure		409				{object}	utils.Response	"Work not done or already paid"
//	@Router			/api/wallet/pay-final [post]
func (h *WalletHandler) PayFinal(w http.ResponseWriter, r *http.Request) {
	var req dto.PayFinalRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, result, err := h.payments.FinalSettle(r.Context(), req.OrderID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PayFinalResponseDTO{
		Message:    "Payment completed",
		OrderID:    order.ID,
		Paid:       result.Debited,
		Credited:   result.Credited,
		Commission: result.Commission,
	})
}
