// Package memrepo keeps every table in process memory. It backs DATABASE_URI=memory://
// and the scenario tests. Transactions are serialised and roll back by restoring a snapshot.
package memrepo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/pg"
	"github.com/GlebRadaev/akalimo/internal/repo"
	"github.com/google/uuid"
)

// Categories mirrors the seed migration so both backends share category ids.
var Categories = []domain.Category{
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000001"), Name: "Technical Services"},
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000002"), Name: "Beauty & Health"},
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000003"), Name: "Furniture & Decoration"},
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000004"), Name: "Home Management"},
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000005"), Name: "Fashion & Design"},
	{ID: uuid.MustParse("0b9d6f3e-3c51-4c1e-9f0e-6a1f2c000006"), Name: "Building & Construction"},
}

type state struct {
	users         map[uuid.UUID]domain.User
	profiles      map[uuid.UUID]domain.Profile
	categories    map[uuid.UUID]domain.Category
	wallets       map[uuid.UUID]domain.Wallet
	transactions  []domain.Transaction
	commissions   []domain.Commission
	orders        map[uuid.UUID]domain.Order
	progress      []domain.ProgressUpdate
	quotations    []domain.Quotation
	notifications []domain.Notification
	ratings       []domain.Rating
	outbox        []domain.OutboxEvent
}

func newState() *state {
	s := &state{
		users:      make(map[uuid.UUID]domain.User),
		profiles:   make(map[uuid.UUID]domain.Profile),
		categories: make(map[uuid.UUID]domain.Category),
		wallets:    make(map[uuid.UUID]domain.Wallet),
		orders:     make(map[uuid.UUID]domain.Order),
	}
	for _, c := range Categories {
		s.categories[c.ID] = c
	}
	return s
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:         cloneMap(s.users),
		profiles:      cloneMap(s.profiles),
		categories:    cloneMap(s.categories),
		wallets:       cloneMap(s.wallets),
		transactions:  slices.Clone(s.transactions),
		commissions:   slices.Clone(s.commissions),
		orders:        cloneMap(s.orders),
		progress:      slices.Clone(s.progress),
		quotations:    slices.Clone(s.quotations),
		notifications: slices.Clone(s.notifications),
		ratings:       slices.Clone(s.ratings),
		outbox:        slices.Clone(s.outbox),
	}
}

type txKey struct{}

// Store is the in-memory database. txMu is held for the whole of a transaction and
// for every write made outside one, so a rollback only ever discards its own writes.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newState(), now: time.Now}
}

// Begin implements pg.TXManager. Nested calls join the open transaction.
func (s *Store) Begin(ctx context.Context, fn pg.TransactionalFn) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snapshot)
	}
	return err
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Repositories exposes the store through the same aggregate the Postgres backend builds.
func (s *Store) Repositories() *repo.Repositories {
	return &repo.Repositories{
		UserRepo:     &users{s},
		ProfileRepo:  &profiles{s},
		WalletRepo:   &wallets{s},
		OrderRepo:    &orders{s},
		Quotation:    &quotations{s},
		Notification: &notifications{s},
		Rating:       &ratings{s},
		Outbox:       &outbox{s},
		TxManager:    s,
	}
}
