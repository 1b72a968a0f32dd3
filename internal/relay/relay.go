package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=relay.go -destination=mock_relay.go -package=relay

var outboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "akalimo_outbox_events_total",
	Help: "Outbox events handled by the relay, by event type and result.",
}, []string{"type", "result"})

var ErrUnknownEvent = errors.New("no handler for event type")

type Store interface {
	FetchBatch(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type Handler func(ctx context.Context, event domain.OutboxEvent) error

type Dispatcher interface {
	FanOut(ctx context.Context, orderID uuid.UUID) (int, error)
}

type Relay struct {
	store     Store
	pool      WorkerPoolI
	handlers  map[string]Handler
	interval  time.Duration
	batchSize int
}

func New(store Store, pool WorkerPoolI, interval time.Duration, batchSize int) *Relay {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Relay{
		store:     store,
		pool:      pool,
		handlers:  make(map[string]Handler),
		interval:  interval,
		batchSize: batchSize,
	}
}

// Handle registers the handler for an event type. It must be called before Start.
func (r *Relay) Handle(eventType string, h Handler) {
	r.handlers[eventType] = h
}

func (r *Relay) Start(ctx context.Context) {
	zap.L().Info("outbox relay started", zap.Duration("interval", r.interval))
	go r.run(ctx)
}

func (r *Relay) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping outbox relay")
			r.pool.Close()
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				zap.L().Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch claims one batch of events, runs them on the worker pool and waits until each
// has been marked processed or failed. It returns how many events were claimed.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.store.FetchBatch(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox batch: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	var done sync.WaitGroup
	var g errgroup.Group
	for _, event := range events {
		event := event
		done.Add(1)
		g.Go(func() error {
			err := r.pool.AddTask(ctx, func() error {
				defer done.Done()
				return r.deliver(ctx, event)
			})
			if err != nil {
				done.Done()
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	done.Wait()
	return len(events), err
}

func (r *Relay) deliver(ctx context.Context, event domain.OutboxEvent) error {
	handler, ok := r.handlers[event.EventType]
	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, event.EventType)
	} else {
		err = handler(ctx, event)
	}

	if err != nil {
		outboxEvents.WithLabelValues(event.EventType, "failed").Inc()
		zap.L().Warn("outbox event failed",
			zap.String("eventID", event.ID.String()),
			zap.String("type", event.EventType),
			zap.Int("attempts", event.Attempts+1),
			zap.Error(err))
		return r.store.MarkFailed(ctx, event.ID)
	}

	outboxEvents.WithLabelValues(event.EventType, "processed").Inc()
	return r.store.MarkProcessed(ctx, event.ID)
}

// OrderCreatedHandler fans a newly created order out to nearby providers.
func OrderCreatedHandler(d Dispatcher) Handler {
	return func(ctx context.Context, event domain.OutboxEvent) error {
		var payload domain.OrderCreatedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.EventType, err)
		}
		sent, err := d.FanOut(ctx, payload.OrderID)
		if err != nil {
			return err
		}
		zap.L().Info("order dispatched", zap.String("orderID", payload.OrderID.String()), zap.Int("alerts", sent))
		return nil
	}
}
