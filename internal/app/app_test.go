package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/GlebRadaev/akalimo/internal/config"
	"github.com/GlebRadaev/akalimo/internal/notify"
	"github.com/GlebRadaev/akalimo/internal/repo/memrepo"
	"github.com/stretchr/testify/suite"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
	s.app.cfg = &config.Config{
		Database:                config.MemoryDatabase,
		KafkaNotificationsTopic: "notifications",
		RelayInterval:           time.Hour,
		RelayBatchSize:          10,
		RelayWorkers:            2,
	}
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	go func() {
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestInitStorage_InMemory() {
	s.Require().NoError(s.app.initStorage(context.Background()))
	s.Require().NotNil(s.app.repo)
	s.IsType(&memrepo.Store{}, s.app.repo.TxManager)
	s.Empty(s.app.closers)
}

func (s *ApplicationSuite) TestInitPublisher() {
	s.Nil(s.app.initPublisher())

	s.app.cfg.PushGatewayAddress = "http://push.local"
	s.IsType(&notify.WebhookPublisher{}, s.app.initPublisher())
	s.Empty(s.app.closers)

	s.app.cfg.KafkaBrokers = []string{"localhost:9092"}
	s.IsType(&notify.KafkaPublisher{}, s.app.initPublisher())
	s.Len(s.app.closers, 1)
	s.app.closeAll()
}

func (s *ApplicationSuite) TestInitIdempotency_Disabled() {
	s.Nil(s.app.initIdempotency(context.Background()))

	s.app.cfg.RedisAddress = "127.0.0.1:1"
	s.Nil(s.app.initIdempotency(context.Background()))
	s.Empty(s.app.closers)
}

func (s *ApplicationSuite) TestNewRelay_EmptyOutbox() {
	store := memrepo.New()
	r := newRelay(s.app.cfg, store.Repositories().Outbox, nil)

	n, err := r.ProcessBatch(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}
