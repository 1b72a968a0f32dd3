package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/akalimo/docs"
	"github.com/GlebRadaev/akalimo/internal/domain"
	authhandlers "github.com/GlebRadaev/akalimo/internal/handlers/auth"
	notificationhandlers "github.com/GlebRadaev/akalimo/internal/handlers/notifications"
	ordershandlers "github.com/GlebRadaev/akalimo/internal/handlers/orders"
	profilehandlers "github.com/GlebRadaev/akalimo/internal/handlers/profile"
	quotationhandlers "github.com/GlebRadaev/akalimo/internal/handlers/quotations"
	ratinghandlers "github.com/GlebRadaev/akalimo/internal/handlers/ratings"
	wallethandlers "github.com/GlebRadaev/akalimo/internal/handlers/wallet"
	"github.com/GlebRadaev/akalimo/internal/service"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/idempotency"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type ProfileHandler interface {
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	SetCategories(w http.ResponseWriter, r *http.Request)
	ListCategories(w http.ResponseWriter, r *http.Request)
	SearchProviders(w http.ResponseWriter, r *http.Request)
}

type OrderHandler interface {
	CreateOrder(w http.ResponseWriter, r *http.Request)
	ListMyOrders(w http.ResponseWriter, r *http.Request)
	ListProviderOrders(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	AddProgressUpdate(w http.ResponseWriter, r *http.Request)
	MarkWorkDone(w http.ResponseWriter, r *http.Request)
	ConfirmArrival(w http.ResponseWriter, r *http.Request)
}

type QuotationHandler interface {
	SubmitQuotation(w http.ResponseWriter, r *http.Request)
	ListQuotations(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetWallet(w http.ResponseWriter, r *http.Request)
	Deposit(w http.ResponseWriter, r *http.Request)
	PayOrder(w http.ResponseWriter, r *http.Request)
	PayFinal(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	ListNotifications(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
}

type RatingHandler interface {
	SubmitRating(w http.ResponseWriter, r *http.Request)
	ListUserRatings(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler         AuthHandler
	ProfileHandler      ProfileHandler
	OrderHandler        OrderHandler
	QuotationHandler    QuotationHandler
	WalletHandler       WalletHandler
	NotificationHandler NotificationHandler
	RatingHandler       RatingHandler

	Tokens auth.TokenValidator
	// Idempotency is optional; payments run without replay protection when nil.
	Idempotency idempotency.Store
}

func New(s *service.Services, store idempotency.Store) *Handlers {
	return &Handlers{
		AuthHandler:         authhandlers.New(s.AuthService),
		ProfileHandler:      profilehandlers.New(s.ProfileService, s.DispatchService),
		OrderHandler:        ordershandlers.New(s.OrderService),
		QuotationHandler:    quotationhandlers.New(s.QuotationService),
		WalletHandler:       wallethandlers.New(s.LedgerService, s.OrderService),
		NotificationHandler: notificationhandlers.New(s.NotificationService),
		RatingHandler:       ratinghandlers.New(s.RatingService),
		Tokens:              s.Tokens,
		Idempotency:         store,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	receiver := auth.RequireRole(string(domain.RoleServiceReceiver))
	provider := auth.RequireRole(string(domain.RoleServiceProvider))

	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		Metrics,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		r.Post("/auth/register", h.AuthHandler.Register)
		r.Post("/auth/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.Tokens))

			r.Get("/categories", h.ProfileHandler.ListCategories)
			r.Get("/providers/search", h.ProfileHandler.SearchProviders)
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", h.ProfileHandler.GetProfile)
				r.Put("/", h.ProfileHandler.UpdateProfile)
				r.With(provider).Put("/categories", h.ProfileHandler.SetCategories)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(receiver).Post("/", h.OrderHandler.CreateOrder)
				r.With(receiver).Get("/", h.OrderHandler.ListMyOrders)
				r.With(provider).Get("/provider", h.OrderHandler.ListProviderOrders)
				r.Get("/{orderID}", h.OrderHandler.GetOrder)
				r.Group(func(r chi.Router) {
					r.Use(provider)
					r.Post("/{orderID}/updates", h.OrderHandler.AddProgressUpdate)
					r.Post("/{orderID}/complete", h.OrderHandler.MarkWorkDone)
					r.Post("/{orderID}/confirm-arrival", h.OrderHandler.ConfirmArrival)
				})
			})

			r.Route("/quotations", func(r chi.Router) {
				r.With(provider).Post("/", h.QuotationHandler.SubmitQuotation)
				r.With(receiver).Get("/{orderID}", h.QuotationHandler.ListQuotations)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", h.WalletHandler.GetWallet)
				r.Post("/deposit", h.WalletHandler.Deposit)
				r.Group(func(r chi.Router) {
					r.Use(receiver)
					if h.Idempotency != nil {
						r.Use(idempotency.Middleware(h.Idempotency))
					}
					r.Post("/pay-order", h.WalletHandler.PayOrder)
					r.Post("/pay-final", h.WalletHandler.PayFinal)
				})
			})

			r.Get("/notifications", h.NotificationHandler.ListNotifications)
			r.Patch("/notifications/{id}/read", h.NotificationHandler.MarkAsRead)

			r.Post("/ratings", h.RatingHandler.SubmitRating)
			r.Get("/users/{userID}/ratings", h.RatingHandler.ListUserRatings)
		})
	})

	return r
}

// health godoc
//
//	@Summary	Liveness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	utils.Response
//	@Router		/api/health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Akalimo API is running"})
}
