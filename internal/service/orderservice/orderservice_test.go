package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type mocks struct {
	orders     *MockRepo
	quotations *MockQuotationRepo
	outbox     *MockOutboxRepo
	categories *MockCategoryRepo
	ledger     *MockLedger
	notifier   *MockNotifier
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		orders:     NewMockRepo(ctrl),
		quotations: NewMockQuotationRepo(ctrl),
		outbox:     NewMockOutboxRepo(ctrl),
		categories: NewMockCategoryRepo(ctrl),
		ledger:     NewMockLedger(ctrl),
		notifier:   NewMockNotifier(ctrl),
	}
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn pg.TransactionalFn) error {
			return fn(ctx)
		}).AnyTimes()

	service := New(Deps{
		Orders:     m.orders,
		Quotations: m.quotations,
		Outbox:     m.outbox,
		Categories: m.categories,
		Ledger:     m.ledger,
		Notifier:   m.notifier,
		TxManager:  txManager,
	}, decimal.RequireFromString("0.10"))
	service.now = func() time.Time { return fixedNow }
	return service, m
}

type decimalMatcher struct{ want decimal.Decimal }

func (d decimalMatcher) Matches(x any) bool {
	v, ok := x.(decimal.Decimal)
	return ok && v.Equal(d.want)
}

func (d decimalMatcher) String() string { return fmt.Sprintf("decimal equal to %s", d.want) }

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	requesterID, categoryID := uuid.New(), uuid.New()

	tests := []struct {
		name        string
		input       CreateInput
		prepareMock func(m *mocks)
		expectedErr error
		check       func(t *testing.T, order *domain.Order)
	}{
		{
			name:        "Category required",
			input:       CreateInput{RequesterID: requesterID},
			prepareMock: func(*mocks) {},
			expectedErr: domain.ErrValidation,
		},
		{
			name:        "Half a coordinate",
			input:       CreateInput{RequesterID: requesterID, CategoryID: categoryID, Latitude: ptr(-1.28)},
			prepareMock: func(*mocks) {},
			expectedErr: domain.ErrValidation,
		},
		{
			name:        "Coordinates out of range",
			input:       CreateInput{RequesterID: requesterID, CategoryID: categoryID, Latitude: ptr(95.0), Longitude: ptr(36.8)},
			prepareMock: func(*mocks) {},
			expectedErr: domain.ErrValidation,
		},
		{
			name:        "Negative quote count",
			input:       CreateInput{RequesterID: requesterID, CategoryID: categoryID, QuoteCount: -2},
			prepareMock: func(*mocks) {},
			expectedErr: domain.ErrValidation,
		},
		{
			name:  "Unknown category",
			input: CreateInput{RequesterID: requesterID, CategoryID: categoryID},
			prepareMock: func(m *mocks) {
				m.categories.EXPECT().CategoryExists(gomock.Any(), categoryID).Return(false, nil)
			},
			expectedErr: domain.ErrValidation,
		},
		{
			name: "Located order queues dispatch",
			input: CreateInput{
				RequesterID: requesterID, CategoryID: categoryID, ServiceType: "Plumbing",
				Latitude: ptr(-1.28), Longitude: ptr(36.81), QuoteCount: 3,
			},
			prepareMock: func(m *mocks) {
				m.categories.EXPECT().CategoryExists(gomock.Any(), categoryID).Return(true, nil)
				m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				m.outbox.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *domain.OutboxEvent) error {
					assert.Equal(t, domain.EventOrderCreated, e.EventType)
					assert.Equal(t, domain.OutboxStatusNew, e.Status)
					var payload domain.OrderCreatedPayload
					assert.NoError(t, json.Unmarshal(e.Payload, &payload))
					assert.NotEqual(t, uuid.Nil, payload.OrderID)
					return nil
				})
			},
			check: func(t *testing.T, order *domain.Order) {
				assert.Equal(t, domain.OrderStatusPending, order.Status)
				assert.Equal(t, 3, order.QuoteCount)
				assert.Nil(t, order.ServiceProviderID)
				assert.NotNil(t, order.Photos)
			},
		},
		{
			name:  "Order without location skips dispatch",
			input: CreateInput{RequesterID: requesterID, CategoryID: categoryID},
			prepareMock: func(m *mocks) {
				m.categories.EXPECT().CategoryExists(gomock.Any(), categoryID).Return(true, nil)
				m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, order *domain.Order) {
				assert.Equal(t, 1, order.QuoteCount)
			},
		},
		{
			name:  "Outbox failure fails creation",
			input: CreateInput{RequesterID: requesterID, CategoryID: categoryID, Latitude: ptr(0.0), Longitude: ptr(0.0)},
			prepareMock: func(m *mocks) {
				m.categories.EXPECT().CategoryExists(gomock.Any(), categoryID).Return(true, nil)
				m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				m.outbox.EXPECT().Add(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectedErr: domain.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			order, err := service.Create(context.Background(), tt.input)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			tt.check(t, order)
		})
	}
}

func pendingOrder(requesterID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		RequesterID: requesterID,
		CategoryID:  uuid.New(),
		ServiceType: "Plumbing",
		Latitude:    ptr(-1.28),
		Longitude:   ptr(36.81),
		QuoteCount:  1,
		Status:      domain.OrderStatusPending,
	}
}

func TestAcceptAndPay(t *testing.T) {
	requesterID, providerID := uuid.New(), uuid.New()
	walletID := uuid.New()

	type fixture struct {
		order     *domain.Order
		quotation *domain.Quotation
	}
	newFixture := func() fixture {
		order := pendingOrder(requesterID)
		return fixture{
			order: order,
			quotation: &domain.Quotation{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProviderID:  providerID,
				TotalAmount: decimal.NewFromInt(8000),
				Status:      domain.QuotationStatusPending,
			},
		}
	}

	tests := []struct {
		name        string
		requesterID uuid.UUID
		commitment  decimal.Decimal
		prepareMock func(m *mocks, f fixture)
		expectedErr error
	}{
		{
			name:        "Commitment moved to escrow",
			requesterID: requesterID,
			commitment:  decimal.NewFromInt(4000),
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
				m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), requesterID).Return(&domain.Wallet{ID: walletID}, nil)
				m.ledger.EXPECT().Debit(gomock.Any(), walletID, decimalMatcher{decimal.NewFromInt(4000)}, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, e domain.LedgerEntry) (*domain.Transaction, error) {
						assert.Equal(t, domain.TransactionPaymentEscrow, e.Type)
						assert.Equal(t, domain.TransactionStatusHeld, e.Status)
						assert.Equal(t, f.order.ID, *e.RelatedOrderID)
						return &domain.Transaction{}, nil
					})
				m.quotations.EXPECT().UpdateStatus(gomock.Any(), f.quotation.ID, domain.QuotationStatusAccepted).Return(nil)
				m.quotations.EXPECT().RejectOthers(gomock.Any(), f.order.ID, f.quotation.ID).Return(nil)
				m.orders.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o *domain.Order) error {
					assert.Equal(t, domain.OrderStatusInProgress, o.Status)
					assert.Equal(t, providerID, *o.ServiceProviderID)
					assert.Equal(t, f.quotation.ID, *o.AcceptedQuotationID)
					return nil
				})
				m.notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n []domain.Notification) ([]domain.Notification, error) {
						require.Len(t, n, 1)
						assert.Equal(t, providerID, n[0].UserID)
						return n, nil
					})
			},
		},
		{
			name:        "Commitment omitted by caller",
			requesterID: requesterID,
			commitment:  decimal.Zero,
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
				m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), requesterID).Return(&domain.Wallet{ID: walletID}, nil)
				m.ledger.EXPECT().Debit(gomock.Any(), walletID, decimalMatcher{decimal.NewFromInt(4000)}, gomock.Any()).Return(&domain.Transaction{}, nil)
				m.quotations.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.quotations.EXPECT().RejectOthers(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.orders.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
				m.notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil, errors.New("notification store down"))
			},
		},
		{
			name:        "Another requester",
			requesterID: uuid.New(),
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
			},
			expectedErr: domain.ErrUnauthorized,
		},
		{
			name:        "Order already in progress",
			requesterID: requesterID,
			prepareMock: func(m *mocks, f fixture) {
				f.order.Status = domain.OrderStatusInProgress
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
			},
			expectedErr: domain.ErrInvalidTransition,
		},
		{
			name:        "Quotation of another order",
			requesterID: requesterID,
			prepareMock: func(m *mocks, f fixture) {
				f.quotation.OrderID = uuid.New()
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
			},
			expectedErr: domain.ErrNotFound,
		},
		{
			name:        "Quotation already rejected",
			requesterID: requesterID,
			prepareMock: func(m *mocks, f fixture) {
				f.quotation.Status = domain.QuotationStatusRejected
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
			},
			expectedErr: domain.ErrInvalidTransition,
		},
		{
			name:        "Commitment disagrees with quotation",
			requesterID: requesterID,
			commitment:  decimal.NewFromInt(100),
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
			},
			expectedErr: domain.ErrValidation,
		},
		{
			name:        "Insufficient funds",
			requesterID: requesterID,
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(f.order, nil)
				m.quotations.EXPECT().FindByID(gomock.Any(), f.quotation.ID).Return(f.quotation, nil)
				m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), requesterID).Return(&domain.Wallet{ID: walletID}, nil)
				m.ledger.EXPECT().Debit(gomock.Any(), walletID, gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: balance 10.00", domain.ErrInsufficientFunds))
			},
			expectedErr: domain.ErrInsufficientFunds,
		},
		{
			name:        "Unknown order",
			requesterID: requesterID,
			prepareMock: func(m *mocks, f fixture) {
				m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), f.order.ID).Return(nil, nil)
			},
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			f := newFixture()
			tt.prepareMock(m, f)

			order, err := service.AcceptAndPay(context.Background(), f.order.ID, tt.requesterID, f.quotation.ID, tt.commitment)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusInProgress, order.Status)
			assert.True(t, decimal.NewFromInt(4000).Equal(*order.CommitmentAmount))
		})
	}
}

func inProgressOrder(requesterID, providerID uuid.UUID) *domain.Order {
	order := pendingOrder(requesterID)
	quotationID := uuid.New()
	order.Status = domain.OrderStatusInProgress
	order.ServiceProviderID = &providerID
	order.AcceptedQuotationID = &quotationID
	order.CommitmentAmount = ptr(decimal.NewFromInt(4000))
	return order
}

func TestProviderTransitions(t *testing.T) {
	requesterID, providerID := uuid.New(), uuid.New()

	t.Run("Progress update notifies requester", func(t *testing.T) {
		service, m := NewMock(t)
		order := inProgressOrder(requesterID, providerID)
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)
		m.orders.EXPECT().AddProgressUpdate(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n []domain.Notification) ([]domain.Notification, error) {
				assert.Equal(t, requesterID, n[0].UserID)
				assert.Equal(t, "Work Update", n[0].Title)
				assert.Equal(t, order.ID, *n[0].Metadata.OrderID)
				return n, nil
			})

		update, err := service.AddProgressUpdate(context.Background(), order.ID, providerID, "Pipes replaced", nil)
		require.NoError(t, err)
		assert.Equal(t, order.ID, update.OrderID)
		assert.NotNil(t, update.Photos)
	})

	t.Run("Progress update needs a description", func(t *testing.T) {
		service, _ := NewMock(t)
		_, err := service.AddProgressUpdate(context.Background(), uuid.New(), providerID, "", nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Progress update by another provider", func(t *testing.T) {
		service, m := NewMock(t)
		order := inProgressOrder(requesterID, providerID)
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)

		_, err := service.AddProgressUpdate(context.Background(), order.ID, uuid.New(), "Done", nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Work done", func(t *testing.T) {
		service, m := NewMock(t)
		order := inProgressOrder(requesterID, providerID)
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)
		m.orders.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil, nil)

		done, err := service.MarkWorkDone(context.Background(), order.ID, providerID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusWorkDone, done.Status)
	})

	t.Run("Work done twice", func(t *testing.T) {
		service, m := NewMock(t)
		order := inProgressOrder(requesterID, providerID)
		order.Status = domain.OrderStatusWorkDone
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)

		_, err := service.MarkWorkDone(context.Background(), order.ID, providerID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Progress after work done", func(t *testing.T) {
		service, m := NewMock(t)
		order := inProgressOrder(requesterID, providerID)
		order.Status = domain.OrderStatusWorkDone
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)

		_, err := service.AddProgressUpdate(context.Background(), order.ID, providerID, "One more thing", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestFinalSettle(t *testing.T) {
	requesterID, providerID := uuid.New(), uuid.New()
	fromWallet, toWallet := uuid.New(), uuid.New()

	workDone := func() (*domain.Order, *domain.Quotation) {
		order := inProgressOrder(requesterID, providerID)
		order.Status = domain.OrderStatusWorkDone
		return order, &domain.Quotation{
			ID:          *order.AcceptedQuotationID,
			OrderID:     order.ID,
			ProviderID:  providerID,
			TotalAmount: decimal.NewFromInt(8000),
			Status:      domain.QuotationStatusAccepted,
		}
	}

	t.Run("Remainder paid net of commission", func(t *testing.T) {
		service, m := NewMock(t)
		order, quotation := workDone()
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)
		m.quotations.EXPECT().FindByID(gomock.Any(), quotation.ID).Return(quotation, nil)
		m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), requesterID).Return(&domain.Wallet{ID: fromWallet}, nil)
		m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), providerID).Return(&domain.Wallet{ID: toWallet}, nil)
		m.ledger.EXPECT().Transfer(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
				assert.Equal(t, fromWallet, req.FromWalletID)
				assert.Equal(t, toWallet, req.ToWalletID)
				assert.True(t, decimal.NewFromInt(4000).Equal(req.Amount))
				assert.True(t, decimal.RequireFromString("0.1").Equal(req.CommissionRate))
				assert.Equal(t, domain.TransactionPaymentFinal, req.Debit.Type)
				assert.Equal(t, domain.TransactionPayoutEarnings, req.Credit.Type)
				return &domain.TransferResult{
					Debited:    decimal.NewFromInt(4000),
					Credited:   decimal.NewFromInt(3600),
					Commission: decimal.NewFromInt(400),
				}, nil
			})
		m.orders.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n []domain.Notification) ([]domain.Notification, error) {
				assert.Equal(t, providerID, n[0].UserID)
				assert.Contains(t, n[0].Message, "3600.00")
				return n, nil
			})

		settled, result, err := service.FinalSettle(context.Background(), order.ID, requesterID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCompleted, settled.Status)
		assert.True(t, decimal.NewFromInt(3600).Equal(result.Credited))
	})

	t.Run("Retry after completion", func(t *testing.T) {
		service, m := NewMock(t)
		order, _ := workDone()
		order.Status = domain.OrderStatusCompleted
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)

		_, _, err := service.FinalSettle(context.Background(), order.ID, requesterID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Insufficient funds keeps order in work done", func(t *testing.T) {
		service, m := NewMock(t)
		order, quotation := workDone()
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)
		m.quotations.EXPECT().FindByID(gomock.Any(), quotation.ID).Return(quotation, nil)
		m.ledger.EXPECT().GetOrCreateWallet(gomock.Any(), gomock.Any()).Return(&domain.Wallet{ID: uuid.New()}, nil).Times(2)
		m.ledger.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil, domain.ErrInsufficientFunds)

		_, _, err := service.FinalSettle(context.Background(), order.ID, requesterID)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("Provider cannot settle", func(t *testing.T) {
		service, m := NewMock(t)
		order, _ := workDone()
		m.orders.EXPECT().FindByIDForUpdate(gomock.Any(), order.ID).Return(order, nil)

		_, _, err := service.FinalSettle(context.Background(), order.ID, providerID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestConfirmArrival(t *testing.T) {
	requesterID, providerID := uuid.New(), uuid.New()

	tests := []struct {
		name        string
		providerID  uuid.UUID
		lat, lng    float64
		mutate      func(o *domain.Order)
		expectedErr error
	}{
		{name: "On site", providerID: providerID, lat: -1.2801, lng: 36.8101},
		{name: "Too far", providerID: providerID, lat: -1.30, lng: 36.81, expectedErr: domain.ErrTooFarFromSite},
		{name: "Another provider", providerID: uuid.New(), lat: -1.28, lng: 36.81, expectedErr: domain.ErrUnauthorized},
		{
			name: "Order without location", providerID: providerID, lat: -1.28, lng: 36.81,
			mutate:      func(o *domain.Order) { o.Latitude, o.Longitude = nil, nil },
			expectedErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			order := inProgressOrder(requesterID, providerID)
			if tt.mutate != nil {
				tt.mutate(order)
			}
			m.orders.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

			distance, err := service.ConfirmArrival(context.Background(), order.ID, tt.providerID, tt.lat, tt.lng)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Less(t, distance, ArrivalRadiusMeters)
		})
	}

	t.Run("Too far is a validation error", func(t *testing.T) {
		assert.ErrorIs(t, domain.ErrTooFarFromSite, domain.ErrValidation)
	})
}

func TestGet(t *testing.T) {
	requesterID, providerID := uuid.New(), uuid.New()
	order := inProgressOrder(requesterID, providerID)

	service, m := NewMock(t)
	m.orders.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil).Times(2)
	m.orders.EXPECT().ListProgressUpdates(gomock.Any(), order.ID).Return([]domain.ProgressUpdate{{Description: "Started"}}, nil)

	got, err := service.Get(context.Background(), order.ID, providerID)
	require.NoError(t, err)
	assert.Len(t, got.ProgressUpdates, 1)

	_, err = service.Get(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLists(t *testing.T) {
	service, m := NewMock(t)
	userID := uuid.New()

	m.orders.EXPECT().ListByRequester(gomock.Any(), userID).Return(nil, nil)
	m.orders.EXPECT().ListByProvider(gomock.Any(), userID).Return(nil, errors.New("db error"))

	orders, err := service.ListForRequester(context.Background(), userID)
	assert.NoError(t, err)
	assert.NotNil(t, orders)

	_, err = service.ListForProvider(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestCommitmentFor(t *testing.T) {
	assert.Equal(t, "4000.00", CommitmentFor(decimal.NewFromInt(8000)).StringFixed(2))
	assert.Equal(t, "2525.13", CommitmentFor(decimal.RequireFromString("5050.25")).StringFixed(2))
}
