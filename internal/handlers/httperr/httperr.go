// Package httperr turns service errors into HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"go.uber.org/zap"
)

var statuses = []struct {
	target error
	code   int
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity},
	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrAlreadyExists, http.StatusConflict},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
}

func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

// Write responds with the status for err. Internal failures are logged and hidden from the caller.
func Write(w http.ResponseWriter, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
