package service

import (
	"context"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/config"
	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/repo/memrepo"
	"github.com/GlebRadaev/akalimo/internal/service/authservice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		TokenTTL:              time.Hour,
		BaseAssessmentFee:     1500,
		CostPerKm:             50,
		CommissionRate:        0.10,
		DispatchRadiusKm:      50,
		EnforceQuotationLimit: true,
	}
}

func TestNew(t *testing.T) {
	services := New(memrepo.New().Repositories(), testConfig(), nil)

	assert.NotNil(t, services.AuthService)
	assert.NotNil(t, services.ProfileService)
	assert.NotNil(t, services.OrderService)
	assert.NotNil(t, services.QuotationService)
	assert.NotNil(t, services.LedgerService)
	assert.NotNil(t, services.NotificationService)
	assert.NotNil(t, services.RatingService)
	assert.NotNil(t, services.DispatchService)
	assert.NotNil(t, services.Tokens)
}

func TestNew_TokensValidateIssuedTokens(t *testing.T) {
	ctx := context.Background()
	services := New(memrepo.New().Repositories(), testConfig(), nil)

	user, err := services.AuthService.Register(ctx, authservice.RegisterInput{
		Phone:    "+254700000001",
		Password: "secret",
		FullName: "Wanjiku",
		Role:     domain.RoleServiceReceiver,
	})
	require.NoError(t, err)

	token, err := services.AuthService.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	claims, err := services.Tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleServiceReceiver), claims.Role)

	statement, err := services.LedgerService.Statement(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, statement.Wallet.Balance.Equal(decimal.Zero))
	assert.Empty(t, statement.Transactions)
}
