package memrepo

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	outboxrepo "github.com/GlebRadaev/akalimo/internal/repo/outbox-repo"
	userrepo "github.com/GlebRadaev/akalimo/internal/repo/user-repo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const stuckAfter = time.Minute

type users struct{ s *Store }

func (r *users) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	var found *domain.User
	r.s.read(func(d *state) {
		for _, u := range d.users {
			if u.Phone == phone {
				u := u
				found = &u
				return
			}
		}
	})
	return found, nil
}

func (r *users) Create(ctx context.Context, user *domain.User) error {
	return r.s.write(ctx, func(d *state) error {
		for _, u := range d.users {
			if u.Phone == user.Phone {
				return userrepo.ErrPhoneTaken
			}
		}
		d.users[user.ID] = *user
		return nil
	})
}

type profiles struct{ s *Store }

func (r *profiles) Create(ctx context.Context, p *domain.Profile) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.profiles[p.UserID]; ok {
			return domain.ErrAlreadyExists
		}
		d.profiles[p.UserID] = *p
		return nil
	})
}

func (r *profiles) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var found *domain.Profile
	r.s.read(func(d *state) {
		if p, ok := d.profiles[userID]; ok {
			p.CategoryIDs = slices.Clone(p.CategoryIDs)
			found = &p
		}
	})
	return found, nil
}

func (r *profiles) Update(ctx context.Context, p *domain.Profile) error {
	return r.s.write(ctx, func(d *state) error {
		current, ok := d.profiles[p.UserID]
		if !ok {
			return nil
		}
		current.FullName = p.FullName
		current.AvatarRef = p.AvatarRef
		current.LocationName = p.LocationName
		current.Latitude, current.Longitude = p.Latitude, p.Longitude
		current.UpdatedAt = p.UpdatedAt
		d.profiles[p.UserID] = current
		return nil
	})
}

func (r *profiles) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		p, ok := d.profiles[userID]
		if !ok {
			return nil
		}
		ids := slices.Clone(categoryIDs)
		slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
		p.CategoryIDs = slices.Compact(ids)
		d.profiles[userID] = p
		return nil
	})
}

func (r *profiles) ListProvidersByCategory(_ context.Context, categoryID uuid.UUID) ([]domain.Profile, error) {
	var out []domain.Profile
	r.s.read(func(d *state) {
		for _, p := range d.profiles {
			if p.Role == domain.RoleServiceProvider && p.HasLocation() && p.Offers(categoryID) {
				p.CategoryIDs = []uuid.UUID{categoryID}
				out = append(out, p)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Profile) int { return bytes.Compare(a.UserID[:], b.UserID[:]) })
	return out, nil
}

func (r *profiles) ListCategories(_ context.Context) ([]domain.Category, error) {
	var out []domain.Category
	r.s.read(func(d *state) {
		for _, c := range d.categories {
			out = append(out, c)
		}
	})
	slices.SortFunc(out, func(a, b domain.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *profiles) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.read(func(d *state) { _, ok = d.categories[id] })
	return ok, nil
}

type wallets struct{ s *Store }

func (r *wallets) Create(ctx context.Context, w *domain.Wallet) error {
	return r.s.write(ctx, func(d *state) error {
		for _, existing := range d.wallets {
			if existing.UserID == w.UserID {
				return domain.ErrAlreadyExists
			}
		}
		d.wallets[w.ID] = *w
		return nil
	})
}

func (r *wallets) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var found *domain.Wallet
	r.s.read(func(d *state) {
		for _, w := range d.wallets {
			if w.UserID == userID {
				w := w
				found = &w
				return
			}
		}
	})
	return found, nil
}

func (r *wallets) FindByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var found *domain.Wallet
	r.s.read(func(d *state) {
		if w, ok := d.wallets[id]; ok {
			found = &w
		}
	})
	return found, nil
}

// FindByIDForUpdate needs no row lock: transactions already run one at a time.
func (r *wallets) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.FindByID(ctx, id)
}

func (r *wallets) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error {
	return r.s.write(ctx, func(d *state) error {
		w, ok := d.wallets[id]
		if !ok {
			return domain.ErrNotFound
		}
		if balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}
		w.Balance, w.UpdatedAt = balance, updatedAt
		d.wallets[id] = w
		return nil
	})
}

func (r *wallets) AddTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.s.write(ctx, func(d *state) error {
		d.transactions = append(d.transactions, *t)
		return nil
	})
}

func (r *wallets) ListTransactions(_ context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	r.s.read(func(d *state) {
		for i := len(d.transactions) - 1; i >= 0; i-- {
			if d.transactions[i].WalletID == walletID {
				out = append(out, d.transactions[i])
			}
		}
	})
	return out, nil
}

func (r *wallets) SumTransactions(_ context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.s.read(func(d *state) {
		for _, t := range d.transactions {
			if t.WalletID == walletID {
				sum = sum.Add(t.Amount)
			}
		}
	})
	return sum, nil
}

func (r *wallets) AddCommission(ctx context.Context, c *domain.Commission) error {
	return r.s.write(ctx, func(d *state) error {
		d.commissions = append(d.commissions, *c)
		return nil
	})
}

// Commissions returns every platform commission recorded so far.
func (s *Store) Commissions() []domain.Commission {
	var out []domain.Commission
	s.read(func(d *state) { out = slices.Clone(d.commissions) })
	return out
}

type orders struct{ s *Store }

func (r *orders) Create(ctx context.Context, o *domain.Order) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.orders[o.ID]; ok {
			return domain.ErrAlreadyExists
		}
		d.orders[o.ID] = *o
		return nil
	})
}

func (r *orders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	var found *domain.Order
	r.s.read(func(d *state) {
		if o, ok := d.orders[id]; ok {
			found = &o
		}
	})
	return found, nil
}

func (r *orders) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orders) Update(ctx context.Context, o *domain.Order) error {
	return r.s.write(ctx, func(d *state) error {
		current, ok := d.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		current.Status = o.Status
		current.ServiceProviderID = o.ServiceProviderID
		current.AcceptedQuotationID = o.AcceptedQuotationID
		current.CommitmentAmount = o.CommitmentAmount
		current.UpdatedAt = o.UpdatedAt
		d.orders[o.ID] = current
		return nil
	})
}

func (r *orders) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.RequesterID == requesterID }), nil
}

func (r *orders) ListByProvider(_ context.Context, providerID uuid.UUID) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.IsProvider(providerID) }), nil
}

func (r *orders) list(keep func(domain.Order) bool) []domain.Order {
	var out []domain.Order
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if keep(o) {
				out = append(out, o)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (r *orders) AddProgressUpdate(ctx context.Context, u *domain.ProgressUpdate) error {
	return r.s.write(ctx, func(d *state) error {
		d.progress = append(d.progress, *u)
		return nil
	})
}

func (r *orders) ListProgressUpdates(_ context.Context, orderID uuid.UUID) ([]domain.ProgressUpdate, error) {
	var out []domain.ProgressUpdate
	r.s.read(func(d *state) {
		for _, u := range d.progress {
			if u.OrderID == orderID {
				out = append(out, u)
			}
		}
	})
	return out, nil
}

type quotations struct{ s *Store }

func (r *quotations) Create(ctx context.Context, q *domain.Quotation) error {
	return r.s.write(ctx, func(d *state) error {
		for _, existing := range d.quotations {
			if existing.OrderID == q.OrderID && existing.ProviderID == q.ProviderID {
				return domain.ErrDuplicateQuotation
			}
		}
		stored := *q
		stored.Items = slices.Clone(q.Items)
		stored.Provider = nil
		d.quotations = append(d.quotations, stored)
		return nil
	})
}

func (r *quotations) FindByID(_ context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var found *domain.Quotation
	r.s.read(func(d *state) {
		for _, q := range d.quotations {
			if q.ID == id {
				q := q
				found = &q
				return
			}
		}
	})
	return found, nil
}

func (r *quotations) ListByOrder(_ context.Context, orderID uuid.UUID) ([]domain.Quotation, error) {
	var out []domain.Quotation
	r.s.read(func(d *state) {
		for _, q := range d.quotations {
			if q.OrderID != orderID {
				continue
			}
			summary := &domain.ProviderSummary{}
			if p, ok := d.profiles[q.ProviderID]; ok {
				summary = &domain.ProviderSummary{FullName: p.FullName, Phone: p.Phone, AvatarRef: p.AvatarRef}
			}
			q.Provider = summary
			out = append(out, q)
		}
	})
	slices.SortStableFunc(out, func(a, b domain.Quotation) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *quotations) CountByOrder(_ context.Context, orderID uuid.UUID) (int, error) {
	n := 0
	r.s.read(func(d *state) {
		for _, q := range d.quotations {
			if q.OrderID == orderID {
				n++
			}
		}
	})
	return n, nil
}

func (r *quotations) ExistsForProvider(_ context.Context, orderID, providerID uuid.UUID) (bool, error) {
	exists := false
	r.s.read(func(d *state) {
		for _, q := range d.quotations {
			if q.OrderID == orderID && q.ProviderID == providerID {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *quotations) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuotationStatus) error {
	return r.s.write(ctx, func(d *state) error {
		for i := range d.quotations {
			if d.quotations[i].ID == id {
				d.quotations[i].Status = status
				return nil
			}
		}
		return nil
	})
}

func (r *quotations) RejectOthers(ctx context.Context, orderID, acceptedID uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		for i, q := range d.quotations {
			if q.OrderID == orderID && q.ID != acceptedID && q.Status == domain.QuotationStatusPending {
				d.quotations[i].Status = domain.QuotationStatusRejected
			}
		}
		return nil
	})
}

type notifications struct{ s *Store }

func (r *notifications) CreateBatch(ctx context.Context, batch []domain.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	return r.s.write(ctx, func(d *state) error {
		d.notifications = append(d.notifications, batch...)
		return nil
	})
}

func (r *notifications) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	r.s.read(func(d *state) {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			if d.notifications[i].UserID == userID {
				out = append(out, d.notifications[i])
			}
		}
	})
	slices.SortStableFunc(out, func(a, b domain.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *notifications) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	found := false
	err := r.s.write(ctx, func(d *state) error {
		for i, n := range d.notifications {
			if n.ID == id && n.UserID == userID {
				d.notifications[i].IsRead = true
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

type ratings struct{ s *Store }

func (r *ratings) Create(ctx context.Context, rating *domain.Rating) error {
	return r.s.write(ctx, func(d *state) error {
		for _, existing := range d.ratings {
			if existing.OrderID == rating.OrderID && existing.RaterID == rating.RaterID {
				return domain.ErrAlreadyRated
			}
		}
		d.ratings = append(d.ratings, *rating)
		return nil
	})
}

func (r *ratings) ListByRatee(_ context.Context, userID uuid.UUID) ([]domain.Rating, error) {
	var out []domain.Rating
	r.s.read(func(d *state) {
		for i := len(d.ratings) - 1; i >= 0; i-- {
			if d.ratings[i].RateeID == userID {
				out = append(out, d.ratings[i])
			}
		}
	})
	return out, nil
}

type outbox struct{ s *Store }

func (r *outbox) Add(ctx context.Context, event *domain.OutboxEvent) error {
	return r.s.write(ctx, func(d *state) error {
		d.outbox = append(d.outbox, *event)
		return nil
	})
}

// FetchBatch claims new events, plus processing ones whose claim has gone stale, oldest first.
func (r *outbox) FetchBatch(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var claimed []domain.OutboxEvent
	err := r.s.write(ctx, func(d *state) error {
		now := r.s.now()
		for i := range d.outbox {
			if len(claimed) >= limit {
				break
			}
			e := &d.outbox[i]
			stale := e.Status == domain.OutboxStatusProcessing && now.Sub(e.UpdatedAt) > stuckAfter
			if e.Status != domain.OutboxStatusNew && !stale {
				continue
			}
			e.Status = domain.OutboxStatusProcessing
			e.UpdatedAt = now
			claimed = append(claimed, *e)
		}
		return nil
	})
	return claimed, err
}

func (r *outbox) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		for i := range d.outbox {
			if d.outbox[i].ID == id {
				d.outbox[i].Status = domain.OutboxStatusProcessed
				d.outbox[i].UpdatedAt = r.s.now()
			}
		}
		return nil
	})
}

func (r *outbox) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		for i := range d.outbox {
			e := &d.outbox[i]
			if e.ID != id {
				continue
			}
			e.Attempts++
			e.Status = domain.OutboxStatusNew
			if e.Attempts >= outboxrepo.MaxAttempts {
				e.Status = domain.OutboxStatusFailed
			}
			e.UpdatedAt = r.s.now()
		}
		return nil
	})
}

// OutboxEvents returns a copy of the outbox table.
func (s *Store) OutboxEvents() []domain.OutboxEvent {
	var out []domain.OutboxEvent
	s.read(func(d *state) { out = slices.Clone(d.outbox) })
	return out
}
