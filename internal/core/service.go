package core

import (
	"context"
	"log/slog"
	"time"

	db "github.com/JonMunkholm/llocg/internal/database"
	"github.com/JonMunkholm/llocg/internal/logging"
)

// Pool is what the service needs from storage. Satisfied by *pgxpool.Pool.
type Pool interface {
	db.DBTX
	Beginner
}

// Invalidator tells other replicas that a reference table changed.
type Invalidator interface {
	Invalidate(ctx context.Context, table string) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) error { return nil }

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	ReadTimeout       time.Duration
	BulkMaxCards      int
	BulkMaxConcurrent int
	BulkMaxWait       time.Duration
}

// DefaultBulkMaxCards is used when Options.BulkMaxCards is zero.
const DefaultBulkMaxCards = 500

// Service is the entry point for card creation, card reads and reference
// data. It owns the reference caches for the life of the process.
type Service struct {
	pool        Pool
	caches      *Caches
	reader      *Reader
	limiter     *BulkLimiter
	bulkMax     int
	invalidator Invalidator
}

// NewService builds a Service and loads every reference cache from storage.
func NewService(ctx context.Context, pool Pool, opts Options) (*Service, error) {
	if opts.BulkMaxCards <= 0 {
		opts.BulkMaxCards = DefaultBulkMaxCards
	}

	s := &Service{
		pool:        pool,
		caches:      NewCaches(pool),
		reader:      NewReader(pool, opts.ReadTimeout),
		limiter:     NewBulkLimiter(opts.BulkMaxConcurrent, opts.BulkMaxWait),
		bulkMax:     opts.BulkMaxCards,
		invalidator: noopInvalidator{},
	}
	if err := s.caches.LoadAll(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// SetInvalidator installs the cross-replica invalidation publisher.
func (s *Service) SetInvalidator(inv Invalidator) {
	if inv == nil {
		inv = noopInvalidator{}
	}
	s.invalidator = inv
}

// Caches exposes the reference caches.
func (s *Service) Caches() *Caches { return s.caches }

// Limiter exposes the bulk limiter, e.g. to drain it at shutdown.
func (s *Service) Limiter() *BulkLimiter { return s.limiter }

// GetCard returns the aggregate view of card id.
func (s *Service) GetCard(ctx context.Context, id int64) (FullCard, error) {
	return s.reader.Fetch(ctx, id)
}

// CreateCard writes card in one transaction and returns the stored aggregate.
func (s *Service) CreateCard(ctx context.Context, card NewCard) (FullCard, error) {
	if err := card.Validate(); err != nil {
		return FullCard{}, err
	}

	logger := logging.WithFields(ctx, "identifier", card.Identifier.String())

	uow, err := BeginUnitOfWork(ctx, s.pool, s.caches)
	if err != nil {
		return FullCard{}, err
	}
	defer uow.Close(ctx)

	id, err := uow.Insert(ctx, card)
	if err != nil {
		logger.Debug("card creation rejected", "error", err)
		return FullCard{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		logger.Error("card commit failed", "error", err)
		return FullCard{}, err
	}
	logger.Info("card created", "card_id", id)

	s.afterCardsCreated(ctx)
	return s.reader.Fetch(ctx, id)
}

// afterCardsCreated refreshes the canonical-name cache. The cards are
// already committed, so a failed refresh is logged rather than returned.
func (s *Service) afterCardsCreated(ctx context.Context) {
	if err := s.caches.Names.Load(ctx); err != nil {
		slog.Warn("names cache refresh failed", "error", err)
		return
	}
	s.publish(ctx, TableNames)
}

// ReloadTable refreshes one cache from storage.
func (s *Service) ReloadTable(ctx context.Context, table string) error {
	return s.caches.Reload(ctx, table)
}

// ReloadAll refreshes every cache from storage.
func (s *Service) ReloadAll(ctx context.Context) error {
	return s.caches.LoadAll(ctx)
}

func (s *Service) publish(ctx context.Context, table string) {
	if err := s.invalidator.Invalidate(ctx, table); err != nil {
		slog.Warn("cache invalidation publish failed", "table", table, "error", err)
	}
}
