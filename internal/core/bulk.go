package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/llocg/internal/logging"
	"github.com/google/uuid"
)

// CreateCards writes every card in one shared transaction. The first failure
// rolls back the whole batch. On success the stored aggregates are returned
// in input order.
func (s *Service) CreateCards(ctx context.Context, cards []NewCard) ([]FullCard, error) {
	if len(cards) == 0 {
		return []FullCard{}, nil
	}
	if len(cards) > s.bulkMax {
		return nil, NewValidationErrorKind(KindBatchSize, "", fmt.Sprintf("too many cards in one batch: %d exceeds the limit of %d", len(cards), s.bulkMax))
	}
	for i, c := range cards {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i, c.Identifier, err)
		}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	batchID := uuid.New().String()
	logger := logging.WithFields(ctx, "batch_id", batchID, "cards", len(cards))
	logger.Info("bulk creation started")
	start := time.Now()

	uow, err := BeginUnitOfWork(ctx, s.pool, s.caches)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	ids := make([]int64, 0, len(cards))
	for i, c := range cards {
		id, err := uow.Insert(ctx, c)
		if err != nil {
			logger.Info("bulk creation rolled back", "failed_index", i, "identifier", c.Identifier.String(), "error", err)
			return nil, fmt.Errorf("card %d (%s): %w", i, c.Identifier, err)
		}
		ids = append(ids, id)
	}

	if err := uow.Commit(ctx); err != nil {
		logger.Error("bulk commit failed", "error", err)
		return nil, err
	}
	logger.Info("bulk creation committed", "duration_ms", time.Since(start).Milliseconds())

	s.afterCardsCreated(ctx)

	out := make([]FullCard, 0, len(ids))
	for _, id := range ids {
		fc, err := s.reader.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, nil
}
