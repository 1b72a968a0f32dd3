package repo

import (
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/internal/relay"
	notificationrepo "github.com/GlebRadaev/akalimo/internal/repo/notification-repo"
	orderrepo "github.com/GlebRadaev/akalimo/internal/repo/order-repo"
	outboxrepo "github.com/GlebRadaev/akalimo/internal/repo/outbox-repo"
	profilerepo "github.com/GlebRadaev/akalimo/internal/repo/profile-repo"
	quotationrepo "github.com/GlebRadaev/akalimo/internal/repo/quotation-repo"
	ratingrepo "github.com/GlebRadaev/akalimo/internal/repo/rating-repo"
	userrepo "github.com/GlebRadaev/akalimo/internal/repo/user-repo"
	walletrepo "github.com/GlebRadaev/akalimo/internal/repo/wallet-repo"
	"github.com/GlebRadaev/akalimo/internal/service/authservice"
	"github.com/GlebRadaev/akalimo/internal/service/dispatchservice"
	"github.com/GlebRadaev/akalimo/internal/service/ledgerservice"
	"github.com/GlebRadaev/akalimo/internal/service/notificationservice"
	"github.com/GlebRadaev/akalimo/internal/service/orderservice"
	"github.com/GlebRadaev/akalimo/internal/service/profileservice"
	"github.com/GlebRadaev/akalimo/internal/service/quotationservice"
	"github.com/GlebRadaev/akalimo/internal/service/ratingservice"
)

type ProfileRepo interface {
	profileservice.Repo
	authservice.ProfileRepo
	dispatchservice.ProfileRepo
}

type QuotationRepo interface {
	quotationservice.Repo
	orderservice.QuotationRepo
}

type OutboxRepo interface {
	orderservice.OutboxRepo
	relay.Store
}

type Repositories struct {
	UserRepo     authservice.Repo
	ProfileRepo  ProfileRepo
	WalletRepo   ledgerservice.Repo
	OrderRepo    orderservice.Repo
	Quotation    QuotationRepo
	Notification notificationservice.Repo
	Rating       ratingservice.Repo
	Outbox       OutboxRepo
	TxManager    pg.TXManager
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:     userrepo.New(conn),
		ProfileRepo:  profilerepo.New(conn, txManager),
		WalletRepo:   walletrepo.New(conn),
		OrderRepo:    orderrepo.New(conn),
		Quotation:    quotationrepo.New(conn),
		Notification: notificationrepo.New(conn),
		Rating:       ratingrepo.New(conn),
		Outbox:       outboxrepo.New(conn),
		TxManager:    txManager,
	}
}
