package orderrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

var columns = []string{
	"id", "requester_id", "service_provider_id", "category_id", "service_type", "description", "location_name",
	"latitude", "longitude", "photos", "scheduled_at", "quote_count", "status", "accepted_quotation_id",
	"commitment_amount", "created_at", "updated_at",
}

func ptr[T any](v T) *T { return &v }

func testOrder() *domain.Order {
	now := time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC)
	return &domain.Order{
		ID:           uuid.New(),
		RequesterID:  uuid.New(),
		CategoryID:   uuid.New(),
		ServiceType:  "Plumbing",
		Description:  "Leaking sink",
		LocationName: "Westlands",
		Latitude:     ptr(-1.28),
		Longitude:    ptr(36.81),
		Photos:       []string{"sink.jpg"},
		QuoteCount:   3,
		Status:       domain.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func orderRow(o *domain.Order) *pgxmock.Rows {
	return pgxmock.NewRows(columns).AddRow(
		o.ID, o.RequesterID, o.ServiceProviderID, o.CategoryID, o.ServiceType, o.Description, o.LocationName,
		o.Latitude, o.Longitude, o.Photos, o.ScheduledAt, o.QuoteCount, o.Status, o.AcceptedQuotationID,
		o.CommitmentAmount, o.CreatedAt, o.UpdatedAt,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	order := testOrder()

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Order saved",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(insertOrderQuery)).
					WithArgs(order.ID, order.RequesterID, order.ServiceProviderID, order.CategoryID, order.ServiceType,
						order.Description, order.LocationName, order.Latitude, order.Longitude, order.Photos,
						order.ScheduledAt, order.QuoteCount, order.Status, order.AcceptedQuotationID,
						order.CommitmentAmount, order.CreatedAt, order.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(insertOrderQuery)).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			err := repo.Create(context.Background(), order)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	order := testOrder()
	accepted := testOrder()
	providerID, quotationID := uuid.New(), uuid.New()
	accepted.Status = domain.OrderStatusInProgress
	accepted.ServiceProviderID = &providerID
	accepted.AcceptedQuotationID = &quotationID
	accepted.CommitmentAmount = ptr(decimal.NewFromInt(5000))

	tests := []struct {
		name      string
		id        uuid.UUID
		forUpdate bool
		mockSetup func()
		expectErr bool
		result    *domain.Order
	}{
		{
			name: "Pending order",
			id:   order.ID,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findOrderQuery)).
					WithArgs(order.ID).
					WillReturnRows(orderRow(order))
			},
			result: order,
		},
		{
			name:      "Accepted order locked for update",
			id:        accepted.ID,
			forUpdate: true,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findOrderForUpdateQuery)).
					WithArgs(accepted.ID).
					WillReturnRows(orderRow(accepted))
			},
			result: accepted,
		},
		{
			name: "Order not found",
			id:   order.ID,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findOrderQuery)).
					WithArgs(order.ID).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			id:   order.ID,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findOrderQuery)).
					WithArgs(order.ID).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			var result *domain.Order
			var err error
			if tt.forUpdate {
				result, err = repo.FindByIDForUpdate(context.Background(), tt.id)
			} else {
				result, err = repo.FindByID(context.Background(), tt.id)
			}

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)
	order := testOrder()
	providerID := uuid.New()
	order.Status = domain.OrderStatusInProgress
	order.ServiceProviderID = &providerID

	mock.ExpectExec(regexp.QuoteMeta(updateOrderQuery)).
		WithArgs(order.Status, order.ServiceProviderID, order.AcceptedQuotationID, order.CommitmentAmount, order.UpdatedAt, order.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Update(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListOrders(t *testing.T) {
	repo, mock := NewMock(t)
	first, second := testOrder(), testOrder()
	providerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(ordersByRequesterQuery)).
		WithArgs(first.RequesterID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			first.ID, first.RequesterID, first.ServiceProviderID, first.CategoryID, first.ServiceType, first.Description,
			first.LocationName, first.Latitude, first.Longitude, first.Photos, first.ScheduledAt, first.QuoteCount,
			first.Status, first.AcceptedQuotationID, first.CommitmentAmount, first.CreatedAt, first.UpdatedAt,
		).AddRow(
			second.ID, first.RequesterID, second.ServiceProviderID, second.CategoryID, second.ServiceType, second.Description,
			second.LocationName, second.Latitude, second.Longitude, second.Photos, second.ScheduledAt, second.QuoteCount,
			second.Status, second.AcceptedQuotationID, second.CommitmentAmount, second.CreatedAt, second.UpdatedAt,
		))
	mock.ExpectQuery(regexp.QuoteMeta(ordersByProviderQuery)).
		WithArgs(providerID).
		WillReturnError(errors.New("database error"))

	orders, err := repo.ListByRequester(context.Background(), first.RequesterID)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[1].ID)

	orders, err = repo.ListByProvider(context.Background(), providerID)
	assert.Error(t, err)
	assert.Nil(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ProgressUpdates(t *testing.T) {
	repo, mock := NewMock(t)
	orderID := uuid.New()
	update := &domain.ProgressUpdate{
		ID:          uuid.New(),
		OrderID:     orderID,
		Description: "Replaced the pipe",
		CreatedAt:   time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta(insertProgressUpdateQuery)).
		WithArgs(update.ID, orderID, update.Description, []string{}, update.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(progressUpdatesQuery)).
		WithArgs(orderID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "description", "photos", "created_at"}).
			AddRow(update.ID, orderID, update.Description, []string{}, update.CreatedAt))

	assert.NoError(t, repo.AddProgressUpdate(context.Background(), update))

	updates, err := repo.ListProgressUpdates(context.Background(), orderID)
	assert.NoError(t, err)
	assert.Len(t, updates, 1)
	assert.Equal(t, "Replaced the pipe", updates[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
