package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.Validationf("bad"), http.StatusUnprocessableEntity},
		{domain.ErrTooFarFromSite, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: -5", domain.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrDuplicateQuotation, http.StatusConflict},
		{domain.ErrQuotationLimitReached, http.StatusConflict},
		{domain.ErrAlreadyRated, http.StatusConflict},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
		{domain.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, Status(tt.err))
		})
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, domain.Classify(errors.New("connection reset")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Internal server error", resp.Message)

	rec = httptest.NewRecorder()
	Write(rec, domain.ErrInsufficientFunds)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "insufficient funds", resp.Message)
}
