package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

// ListHistory returns the context user's records inside the retention
// window, most recent first. Unfiltered listings that fit in the cache are
// served from it; everything else reads the store.
func (s *Service) ListHistory(ctx context.Context, input HistoryInput) ([]*domain.UndoRecord, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	ctx, span := s.tracer.Start(ctx, "journal.ListHistory")
	defer span.End()

	cutoff := s.cutoff()

	if input.ActionType == nil && limit <= s.cfg.CacheSize {
		return s.recentHistory(ctx, userID, limit)
	}

	records, err := s.records.ListByUser(ctx, userID, domain.HistoryFilter{
		Limit:      limit,
		ActionType: input.ActionType,
		Since:      cutoff,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list history: %w", err)
	}

	return records, nil
}

func (s *Service) recentHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.UndoRecord, error) {
	cutoff := s.cutoff()

	if cached, ok := s.cache.Recent(ctx, userID); ok {
		out := make([]*domain.UndoRecord, 0, min(limit, len(cached)))
		for _, rec := range cached {
			if rec.ExpiredAt(cutoff) || len(out) == limit {
				break
			}
			out = append(out, rec)
		}
		return out, nil
	}

	// Read before the store so a write landing in between voids the fill.
	gen, genOK := s.cache.Generation(ctx, userID)

	records, err := s.records.ListByUser(ctx, userID, domain.HistoryFilter{
		Limit: s.cfg.CacheSize,
		Since: cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	if genOK {
		s.cache.Store(ctx, userID, gen, records)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
