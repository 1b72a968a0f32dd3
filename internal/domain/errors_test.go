package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		expected []error
	}{
		{
			name:     "Nil stays nil",
			err:      nil,
			expected: nil,
		},
		{
			name:     "Business error is kept",
			err:      fmt.Errorf("accept order: %w", ErrInsufficientFunds),
			expected: []error{ErrInsufficientFunds},
		},
		{
			name:     "Refinement keeps its parent",
			err:      ErrQuotationLimitReached,
			expected: []error{ErrQuotationLimitReached, ErrInvalidTransition},
		},
		{
			name:     "Unknown error becomes persistence",
			err:      dbErr,
			expected: []error{ErrPersistence, dbErr},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			for _, target := range tt.expected {
				assert.ErrorIs(t, got, target)
			}
		})
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("score must be between %d and %d", 1, 5)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "score must be between 1 and 5")
}

func TestOrderStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		expected bool
	}{
		{OrderStatusPending, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusWorkDone, true},
		{OrderStatusWorkDone, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusWorkDone, OrderStatusInProgress, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransition(tt.to))
		})
	}
}
