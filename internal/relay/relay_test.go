package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Relay, *MockStore, *MockDispatcher) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	dispatcher := NewMockDispatcher(ctrl)
	pool := NewWorkerPool(4)
	t.Cleanup(pool.Close)

	r := New(store, pool, time.Hour, 10)
	r.Handle(domain.EventOrderCreated, OrderCreatedHandler(dispatcher))
	return r, store, dispatcher
}

func orderCreated(t *testing.T, orderID uuid.UUID) domain.OutboxEvent {
	payload, err := json.Marshal(domain.OrderCreatedPayload{OrderID: orderID})
	require.NoError(t, err)
	return domain.OutboxEvent{ID: uuid.New(), EventType: domain.EventOrderCreated, Payload: payload, Status: domain.OutboxStatusProcessing}
}

func TestProcessBatch(t *testing.T) {
	t.Run("Delivered events are marked processed", func(t *testing.T) {
		r, store, dispatcher := NewMock(t)
		first, second := uuid.New(), uuid.New()
		events := []domain.OutboxEvent{orderCreated(t, first), orderCreated(t, second)}

		store.EXPECT().FetchBatch(gomock.Any(), 10).Return(events, nil)
		dispatcher.EXPECT().FanOut(gomock.Any(), first).Return(3, nil)
		dispatcher.EXPECT().FanOut(gomock.Any(), second).Return(0, nil)
		store.EXPECT().MarkProcessed(gomock.Any(), events[0].ID).Return(nil)
		store.EXPECT().MarkProcessed(gomock.Any(), events[1].ID).Return(nil)

		n, err := r.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Handler failure marks event failed", func(t *testing.T) {
		r, store, dispatcher := NewMock(t)
		orderID := uuid.New()
		event := orderCreated(t, orderID)

		store.EXPECT().FetchBatch(gomock.Any(), 10).Return([]domain.OutboxEvent{event}, nil)
		dispatcher.EXPECT().FanOut(gomock.Any(), orderID).Return(0, errors.New("insert failed"))
		store.EXPECT().MarkFailed(gomock.Any(), event.ID).Return(nil)

		n, err := r.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Unknown event type and bad payload fail", func(t *testing.T) {
		r, store, _ := NewMock(t)
		unknown := domain.OutboxEvent{ID: uuid.New(), EventType: "order.deleted", Payload: []byte(`{}`)}
		broken := domain.OutboxEvent{ID: uuid.New(), EventType: domain.EventOrderCreated, Payload: []byte(`{`)}

		store.EXPECT().FetchBatch(gomock.Any(), 10).Return([]domain.OutboxEvent{unknown, broken}, nil)
		store.EXPECT().MarkFailed(gomock.Any(), unknown.ID).Return(nil)
		store.EXPECT().MarkFailed(gomock.Any(), broken.ID).Return(nil)

		_, err := r.ProcessBatch(context.Background())
		require.NoError(t, err)
	})

	t.Run("Empty batch", func(t *testing.T) {
		r, store, _ := NewMock(t)
		store.EXPECT().FetchBatch(gomock.Any(), 10).Return(nil, nil)

		n, err := r.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Fetch error", func(t *testing.T) {
		r, store, _ := NewMock(t)
		store.EXPECT().FetchBatch(gomock.Any(), 10).Return(nil, errors.New("db down"))

		_, err := r.ProcessBatch(context.Background())
		assert.Error(t, err)
	})
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().FetchBatch(gomock.Any(), 1).Return(nil, nil).AnyTimes()

	r := New(store, NewWorkerPool(1), 5*time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
}
