package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/akalimo/internal/config"
	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/handlers"
	"github.com/GlebRadaev/akalimo/internal/notify"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/internal/relay"
	"github.com/GlebRadaev/akalimo/internal/repo"
	"github.com/GlebRadaev/akalimo/internal/repo/memrepo"
	"github.com/GlebRadaev/akalimo/internal/service"
	notificationservice "github.com/GlebRadaev/akalimo/internal/service/notificationservice"
	"github.com/GlebRadaev/akalimo/pkg/clients"
	"github.com/GlebRadaev/akalimo/pkg/idempotency"
	"github.com/GlebRadaev/akalimo/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg   *config.Config
	api   *handlers.Handlers
	srv   *service.Services
	repo  *repo.Repositories
	relay *relay.Relay

	closers []io.Closer
	errCh   chan error
	wg      sync.WaitGroup
	ready   bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	a.cfg = cfg

	if err := a.initStorage(ctx); err != nil {
		return err
	}

	publisher := a.initPublisher()
	a.srv = service.New(a.repo, cfg, publisher)
	a.api = handlers.New(a.srv, a.initIdempotency(ctx))
	a.relay = newRelay(cfg, a.repo.Outbox, a.srv.DispatchService)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.relay.Start(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func (a *Application) initStorage(ctx context.Context) error {
	if a.cfg.InMemory() {
		zap.L().Warn("using in-memory storage, data is lost on restart")
		a.repo = memrepo.New().Repositories()
		return nil
	}

	pool, err := getPgxpool(ctx, a.cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	version, err := pg.RunMigrations(ctx, pool)
	if err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	zap.L().Info("schema is up to date", zap.Int64("version", version))
	a.closers = append(a.closers, closerFunc(func() error {
		pool.Close()
		return nil
	}))

	a.repo = repo.New(pg.New(pool), pg.NewTXManager(pool))
	return nil
}

// initPublisher picks where stored notifications are pushed. Kafka wins over the webhook gateway.
func (a *Application) initPublisher() notificationservice.Publisher {
	switch {
	case len(a.cfg.KafkaBrokers) > 0:
		writer := notify.NewKafkaWriter(a.cfg.KafkaBrokers, a.cfg.KafkaNotificationsTopic)
		publisher := notify.NewKafkaPublisher(writer)
		a.closers = append(a.closers, publisher)
		zap.L().Info("publishing notifications to kafka",
			zap.Strings("brokers", a.cfg.KafkaBrokers),
			zap.String("topic", a.cfg.KafkaNotificationsTopic))
		return publisher
	case a.cfg.PushGatewayAddress != "":
		zap.L().Info("publishing notifications to push gateway", zap.String("address", a.cfg.PushGatewayAddress))
		return notify.NewWebhookPublisher(clients.NewHTTPClient(), a.cfg.PushGatewayAddress)
	default:
		return nil
	}
}

func (a *Application) initIdempotency(ctx context.Context) idempotency.Store {
	if a.cfg.RedisAddress == "" {
		return nil
	}
	client, err := idempotency.NewRedisClient(ctx, a.cfg.RedisAddress)
	if err != nil {
		zap.L().Warn("redis unavailable, payments run without idempotency keys", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, client)
	return idempotency.NewRedisStore(client)
}

func newRelay(cfg *config.Config, store relay.Store, dispatcher relay.Dispatcher) *relay.Relay {
	r := relay.New(store, relay.NewWorkerPool(cfg.RelayWorkers), cfg.RelayInterval, cfg.RelayBatchSize)
	r.Handle(domain.EventOrderCreated, relay.OrderCreatedHandler(dispatcher))
	return r
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Warn("http server shutdown", zap.Error(err))
		}
		a.closeAll()
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			zap.L().Warn("failed to close resource", zap.Error(err))
		}
	}
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
