package service

import (
	"github.com/GlebRadaev/akalimo/internal/config"
	"github.com/GlebRadaev/akalimo/internal/handlers/auth"
	"github.com/GlebRadaev/akalimo/internal/handlers/notifications"
	"github.com/GlebRadaev/akalimo/internal/handlers/orders"
	"github.com/GlebRadaev/akalimo/internal/handlers/profile"
	"github.com/GlebRadaev/akalimo/internal/handlers/quotations"
	"github.com/GlebRadaev/akalimo/internal/handlers/ratings"
	"github.com/GlebRadaev/akalimo/internal/handlers/wallet"
	"github.com/GlebRadaev/akalimo/internal/relay"
	"github.com/GlebRadaev/akalimo/internal/repo"
	"github.com/shopspring/decimal"

	pkgauth "github.com/GlebRadaev/akalimo/pkg/auth"

	authservice "github.com/GlebRadaev/akalimo/internal/service/authservice"
	dispatchservice "github.com/GlebRadaev/akalimo/internal/service/dispatchservice"
	ledgerservice "github.com/GlebRadaev/akalimo/internal/service/ledgerservice"
	notificationservice "github.com/GlebRadaev/akalimo/internal/service/notificationservice"
	orderservice "github.com/GlebRadaev/akalimo/internal/service/orderservice"
	profileservice "github.com/GlebRadaev/akalimo/internal/service/profileservice"
	quotationservice "github.com/GlebRadaev/akalimo/internal/service/quotationservice"
	ratingservice "github.com/GlebRadaev/akalimo/internal/service/ratingservice"
)

// Dispatch is both the provider search behind the API and the fan-out behind the relay.
type Dispatch interface {
	profile.Search
	relay.Dispatcher
}

// OrderService serves the order endpoints and the two payment steps.
type OrderService interface {
	orders.Service
	wallet.Payments
}

type Services struct {
	AuthService         auth.Service
	ProfileService      profile.Service
	OrderService        OrderService
	QuotationService    quotations.Service
	LedgerService       wallet.Ledger
	NotificationService notifications.Service
	RatingService       ratings.Service
	DispatchService     Dispatch
	Tokens              pkgauth.TokenValidator
}

// New wires the services. publisher may be nil, in which case notifications are only stored.
func New(repos *repo.Repositories, cfg *config.Config, publisher notificationservice.Publisher) *Services {
	jwtService := pkgauth.NewJWTService(cfg.JWTSecret)

	ledgerService := ledgerservice.New(repos.WalletRepo, repos.TxManager)
	notificationService := notificationservice.New(repos.Notification, publisher)
	orderService := orderservice.New(orderservice.Deps{
		Orders:     repos.OrderRepo,
		Quotations: repos.Quotation,
		Outbox:     repos.Outbox,
		Categories: repos.ProfileRepo,
		Ledger:     ledgerService,
		Notifier:   notificationService,
		TxManager:  repos.TxManager,
	}, decimal.NewFromFloat(cfg.CommissionRate))
	quotationService := quotationservice.New(
		repos.Quotation,
		repos.OrderRepo,
		repos.ProfileRepo,
		notificationService,
		repos.TxManager,
		quotationservice.Pricing{
			BaseAssessmentFee: decimal.NewFromFloat(cfg.BaseAssessmentFee),
			CostPerKm:         decimal.NewFromFloat(cfg.CostPerKm),
			EnforceLimit:      cfg.EnforceQuotationLimit,
		},
	)
	authService := authservice.New(
		repos.UserRepo,
		repos.ProfileRepo,
		ledgerService,
		repos.TxManager,
		pkgauth.NewBcryptHasher(cfg.BcryptCost),
		jwtService,
		cfg.TokenTTL,
	)

	return &Services{
		AuthService:         authService,
		ProfileService:      profileservice.New(repos.ProfileRepo),
		OrderService:        orderService,
		QuotationService:    quotationService,
		LedgerService:       ledgerService,
		NotificationService: notificationService,
		RatingService:       ratingservice.New(repos.Rating, repos.OrderRepo),
		DispatchService:     dispatchservice.New(repos.OrderRepo, repos.ProfileRepo, notificationService, cfg.DispatchRadiusKm),
		Tokens:              jwtService,
	}
}
