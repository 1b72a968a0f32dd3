package memrepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/relay"
	"github.com/GlebRadaev/akalimo/internal/service/dispatchservice"
	"github.com/GlebRadaev/akalimo/internal/service/ledgerservice"
	"github.com/GlebRadaev/akalimo/internal/service/notificationservice"
	"github.com/GlebRadaev/akalimo/internal/service/orderservice"
	"github.com/GlebRadaev/akalimo/internal/service/quotationservice"
	"github.com/GlebRadaev/akalimo/internal/service/ratingservice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var technical = Categories[0].ID

type ScenarioSuite struct {
	suite.Suite
	ctx           context.Context
	store         *Store
	ledger        *ledgerservice.Service
	notifications *notificationservice.Service
	orders        *orderservice.Service
	quotations    *quotationservice.Service
	dispatch      *dispatchservice.Service
	ratings       *ratingservice.Service
	relay         *relay.Relay
}

func TestScenarios(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New()
	repos := s.store.Repositories()

	s.ledger = ledgerservice.New(repos.WalletRepo, repos.TxManager)
	s.notifications = notificationservice.New(repos.Notification, nil)
	s.orders = orderservice.New(orderservice.Deps{
		Orders:     repos.OrderRepo,
		Quotations: repos.Quotation,
		Outbox:     repos.Outbox,
		Categories: repos.ProfileRepo,
		Ledger:     s.ledger,
		Notifier:   s.notifications,
		TxManager:  repos.TxManager,
	}, decimal.RequireFromString("0.10"))
	s.quotations = quotationservice.New(repos.Quotation, repos.OrderRepo, repos.ProfileRepo, s.notifications, repos.TxManager,
		quotationservice.Pricing{
			BaseAssessmentFee: decimal.NewFromInt(1500),
			CostPerKm:         decimal.NewFromInt(50),
			EnforceLimit:      true,
		})
	s.dispatch = dispatchservice.New(repos.OrderRepo, repos.ProfileRepo, s.notifications, 50)
	s.ratings = ratingservice.New(repos.Rating, repos.OrderRepo)

	pool := relay.NewWorkerPool(2)
	s.T().Cleanup(pool.Close)
	s.relay = relay.New(repos.Outbox, pool, time.Hour, 10)
	s.relay.Handle(domain.EventOrderCreated, relay.OrderCreatedHandler(s.dispatch))
}

func ptr[T any](v T) *T { return &v }

func (s *ScenarioSuite) user(role domain.Role, lat, lng *float64, categories ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	repos := s.store.Repositories()
	s.Require().NoError(repos.ProfileRepo.Create(s.ctx, &domain.Profile{
		UserID:    id,
		FullName:  string(role) + " " + id.String()[:4],
		Phone:     "+2547" + id.String()[:8],
		Role:      role,
		Latitude:  lat,
		Longitude: lng,
	}))
	if len(categories) > 0 {
		s.Require().NoError(repos.ProfileRepo.SetCategories(s.ctx, id, categories))
	}
	_, err := s.ledger.GetOrCreateWallet(s.ctx, id)
	s.Require().NoError(err)
	return id
}

func (s *ScenarioSuite) balance(userID uuid.UUID) decimal.Decimal {
	w, err := s.ledger.GetOrCreateWallet(s.ctx, userID)
	s.Require().NoError(err)
	return w.Balance
}

func (s *ScenarioSuite) assertBalance(userID uuid.UUID, want string) {
	got := s.balance(userID)
	s.True(got.Equal(decimal.RequireFromString(want)), "balance %s, want %s", got, want)
}

// pendingOrder creates an order at the origin with one 8000 quotation from a provider at the same spot.
func (s *ScenarioSuite) pendingOrder(requester, provider uuid.UUID) (*domain.Order, *domain.Quotation) {
	order, err := s.orders.Create(s.ctx, orderservice.CreateInput{
		RequesterID:  requester,
		CategoryID:   technical,
		ServiceType:  "Plumbing",
		Description:  "Leaking kitchen sink",
		LocationName: "Kilimani",
		Latitude:     ptr(0.0),
		Longitude:    ptr(0.0),
		QuoteCount:   3,
	})
	s.Require().NoError(err)

	quotation, err := s.quotations.Submit(s.ctx, quotationservice.SubmitInput{
		OrderID:    order.ID,
		ProviderID: provider,
		ServiceFee: decimal.NewFromInt(6500),
	})
	s.Require().NoError(err)
	s.Require().True(quotation.TotalAmount.Equal(decimal.NewFromInt(8000)), "total %s", quotation.TotalAmount)
	return order, quotation
}

func (s *ScenarioSuite) TestEndToEndPayment() {
	requester := s.user(domain.RoleServiceReceiver, ptr(0.0), ptr(0.0))
	provider := s.user(domain.RoleServiceProvider, ptr(0.0), ptr(0.0), technical)
	_, err := s.ledger.Deposit(s.ctx, requester, decimal.NewFromInt(10000))
	s.Require().NoError(err)

	order, quotation := s.pendingOrder(requester, provider)

	accepted, err := s.orders.AcceptAndPay(s.ctx, order.ID, requester, quotation.ID, decimal.NewFromInt(4000))
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusInProgress, accepted.Status)
	s.assertBalance(requester, "6000")

	_, err = s.orders.AddProgressUpdate(s.ctx, order.ID, provider, "Replaced the trap", nil)
	s.Require().NoError(err)
	_, err = s.orders.MarkWorkDone(s.ctx, order.ID, provider)
	s.Require().NoError(err)

	settled, result, err := s.orders.FinalSettle(s.ctx, order.ID, requester)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCompleted, settled.Status)
	s.True(result.Credited.Equal(decimal.NewFromInt(3600)))
	s.True(result.Commission.Equal(decimal.NewFromInt(400)))

	s.assertBalance(requester, "2000")
	s.assertBalance(provider, "3600")
	s.Require().Len(s.store.Commissions(), 1)

	for _, id := range []uuid.UUID{requester, provider} {
		w, err := s.ledger.GetOrCreateWallet(s.ctx, id)
		s.Require().NoError(err)
		s.NoError(s.ledger.Reconcile(s.ctx, w.ID))
	}

	_, _, err = s.orders.FinalSettle(s.ctx, order.ID, requester)
	s.ErrorIs(err, domain.ErrInvalidTransition)
	s.assertBalance(requester, "2000")
	s.assertBalance(provider, "3600")

	notes, err := s.notifications.List(s.ctx, provider)
	s.Require().NoError(err)
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	s.Contains(titles, "Quotation Accepted")
	s.Contains(titles, "Payment Released")
}

func (s *ScenarioSuite) TestInsufficientFundsLeavesNothingBehind() {
	requester := s.user(domain.RoleServiceReceiver, nil, nil)
	provider := s.user(domain.RoleServiceProvider, ptr(0.0), ptr(0.0), technical)
	_, err := s.ledger.Deposit(s.ctx, requester, decimal.NewFromInt(1000))
	s.Require().NoError(err)

	order, quotation := s.pendingOrder(requester, provider)

	_, err = s.orders.AcceptAndPay(s.ctx, order.ID, requester, quotation.ID, decimal.Zero)
	s.ErrorIs(err, domain.ErrInsufficientFunds)
	s.assertBalance(requester, "1000")

	reloaded, err := s.orders.Get(s.ctx, order.ID, requester)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, reloaded.Status)
	s.Nil(reloaded.ServiceProviderID)

	quotes, err := s.quotations.ListForOrder(s.ctx, order.ID, requester)
	s.Require().NoError(err)
	s.Require().Len(quotes, 1)
	s.Equal(domain.QuotationStatusPending, quotes[0].Status)
}

func (s *ScenarioSuite) TestConcurrentAcceptAndPay() {
	requester := s.user(domain.RoleServiceReceiver, nil, nil)
	first := s.user(domain.RoleServiceProvider, ptr(0.0), ptr(0.0), technical)
	second := s.user(domain.RoleServiceProvider, ptr(0.0), ptr(0.0), technical)
	_, err := s.ledger.Deposit(s.ctx, requester, decimal.NewFromInt(20000))
	s.Require().NoError(err)

	order, q1 := s.pendingOrder(requester, first)
	q2, err := s.quotations.Submit(s.ctx, quotationservice.SubmitInput{
		OrderID: order.ID, ProviderID: second, ServiceFee: decimal.NewFromInt(6500),
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, q := range []*domain.Quotation{q1, q2} {
		wg.Add(1)
		go func(i int, quotationID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = s.orders.AcceptAndPay(s.ctx, order.ID, requester, quotationID, decimal.Zero)
		}(i, q.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, domain.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)
	s.assertBalance(requester, "16000")

	quotes, err := s.quotations.ListForOrder(s.ctx, order.ID, requester)
	s.Require().NoError(err)
	statuses := map[domain.QuotationStatus]int{}
	for _, q := range quotes {
		statuses[q.Status]++
	}
	s.Equal(map[domain.QuotationStatus]int{domain.QuotationStatusAccepted: 1, domain.QuotationStatusRejected: 1}, statuses)
}

func (s *ScenarioSuite) TestDispatchThroughOutbox() {
	requester := s.user(domain.RoleServiceReceiver, nil, nil)
	near := s.user(domain.RoleServiceProvider, ptr(-1.2921), ptr(36.8219), technical)
	far := s.user(domain.RoleServiceProvider, ptr(-4.0435), ptr(39.6682), technical)
	otherTrade := s.user(domain.RoleServiceProvider, ptr(-1.2921), ptr(36.8219), Categories[1].ID)

	order, err := s.orders.Create(s.ctx, orderservice.CreateInput{
		RequesterID: requester,
		CategoryID:  technical,
		ServiceType: "Electrical",
		Latitude:    ptr(-1.30),
		Longitude:   ptr(36.80),
	})
	s.Require().NoError(err)

	n, err := s.relay.ProcessBatch(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	alerts, err := s.notifications.List(s.ctx, near)
	s.Require().NoError(err)
	s.Require().Len(alerts, 1)
	s.Equal("New Job Alert!", alerts[0].Title)
	s.Equal(domain.NotificationOrderAlert, alerts[0].Type)
	s.Equal(order.ID, *alerts[0].Metadata.OrderID)

	for _, id := range []uuid.UUID{far, otherTrade, requester} {
		got, err := s.notifications.List(s.ctx, id)
		s.Require().NoError(err)
		s.Empty(got)
	}

	events := s.store.OutboxEvents()
	s.Require().Len(events, 1)
	s.Equal(domain.OutboxStatusProcessed, events[0].Status)

	n, err = s.relay.ProcessBatch(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ScenarioSuite) TestOrderWithoutLocationIsNotDispatched() {
	requester := s.user(domain.RoleServiceReceiver, nil, nil)
	_, err := s.orders.Create(s.ctx, orderservice.CreateInput{RequesterID: requester, CategoryID: technical, ServiceType: "Cleaning"})
	s.Require().NoError(err)
	s.Empty(s.store.OutboxEvents())
}

func (s *ScenarioSuite) TestRatings() {
	requester := s.user(domain.RoleServiceReceiver, nil, nil)
	provider := s.user(domain.RoleServiceProvider, ptr(0.0), ptr(0.0), technical)
	_, err := s.ledger.Deposit(s.ctx, requester, decimal.NewFromInt(10000))
	s.Require().NoError(err)
	order, quotation := s.pendingOrder(requester, provider)

	_, err = s.ratings.Submit(s.ctx, order.ID, requester, 5, "early")
	s.ErrorIs(err, domain.ErrInvalidTransition)

	_, err = s.orders.AcceptAndPay(s.ctx, order.ID, requester, quotation.ID, decimal.Zero)
	s.Require().NoError(err)
	_, err = s.orders.MarkWorkDone(s.ctx, order.ID, provider)
	s.Require().NoError(err)
	_, _, err = s.orders.FinalSettle(s.ctx, order.ID, requester)
	s.Require().NoError(err)

	rating, err := s.ratings.Submit(s.ctx, order.ID, requester, 5, "Great work")
	s.Require().NoError(err)
	s.Equal(provider, rating.RateeID)

	_, err = s.ratings.Submit(s.ctx, order.ID, requester, 4, "again")
	s.ErrorIs(err, domain.ErrAlreadyRated)

	_, err = s.ratings.Submit(s.ctx, order.ID, uuid.New(), 4, "stranger")
	s.ErrorIs(err, domain.ErrUnauthorized)

	_, err = s.ratings.Submit(s.ctx, order.ID, provider, 3, "Slow to pay")
	s.Require().NoError(err)

	summary, err := s.ratings.ListForUser(s.ctx, provider)
	s.Require().NoError(err)
	s.Equal(1, summary.Count)
	s.Equal(5.0, summary.Average)
}

func (s *ScenarioSuite) TestBalancesNeverGoNegative() {
	payer := s.user(domain.RoleServiceReceiver, nil, nil)
	payee := s.user(domain.RoleServiceProvider, nil, nil)
	_, err := s.ledger.Deposit(s.ctx, payer, decimal.NewFromInt(1000))
	s.Require().NoError(err)
	from, err := s.ledger.GetOrCreateWallet(s.ctx, payer)
	s.Require().NoError(err)
	to, err := s.ledger.GetOrCreateWallet(s.ctx, payee)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ledger.Transfer(s.ctx, domain.TransferRequest{
				FromWalletID:   from.ID,
				ToWalletID:     to.ID,
				Amount:         decimal.NewFromInt(100),
				CommissionRate: decimal.Zero,
				Debit:          domain.LedgerEntry{Type: domain.TransactionPaymentFinal, Status: domain.TransactionStatusCompleted},
				Credit:         domain.LedgerEntry{Type: domain.TransactionPayoutEarnings, Status: domain.TransactionStatusCompleted},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				s.Fail("unexpected error", err.Error())
			}
		}()
	}
	wg.Wait()

	s.Equal(10, ok)
	s.Equal(10, insufficient)
	s.assertBalance(payer, "0")
	s.assertBalance(payee, "1000")
	s.NoError(s.ledger.Reconcile(s.ctx, from.ID))
	s.NoError(s.ledger.Reconcile(s.ctx, to.ID))
}

func TestBegin_RollsBackAndJoins(t *testing.T) {
	store := New()
	repos := store.Repositories()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Begin(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Rating.Create(ctx, &domain.Rating{ID: uuid.New(), OrderID: uuid.New(), RaterID: uuid.New()}))
		return store.Begin(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := repos.Rating.ListByRatee(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOutbox_RetryThenDead(t *testing.T) {
	store := New()
	repos := store.Repositories()
	ctx := context.Background()
	event := &domain.OutboxEvent{ID: uuid.New(), EventType: domain.EventOrderCreated, Status: domain.OutboxStatusNew}
	require.NoError(t, repos.Outbox.Add(ctx, event))

	for attempt := 1; attempt <= 5; attempt++ {
		batch, err := repos.Outbox.FetchBatch(ctx, 10)
		require.NoError(t, err)
		require.Len(t, batch, 1, "attempt %d", attempt)
		require.NoError(t, repos.Outbox.MarkFailed(ctx, event.ID))
	}

	batch, err := repos.Outbox.FetchBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
	events := store.OutboxEvents()
	assert.Equal(t, domain.OutboxStatusFailed, events[0].Status)
	assert.Equal(t, 5, events[0].Attempts)
}

func TestOutbox_ReclaimsStuckEvents(t *testing.T) {
	store := New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	repos := store.Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Outbox.Add(ctx, &domain.OutboxEvent{ID: uuid.New(), Status: domain.OutboxStatusNew}))

	batch, err := repos.Outbox.FetchBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	batch, err = repos.Outbox.FetchBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)

	now = now.Add(2 * time.Minute)
	batch, err = repos.Outbox.FetchBatch(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}
