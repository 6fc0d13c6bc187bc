package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// SweepExpired deletes every record created before the retention window,
// regardless of status, then evicts the deleted records from the cache.
// It takes no user locks and is safe to run concurrently with itself and
// with live traffic. Returns the number of records deleted.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "journal.SweepExpired")
	defer span.End()

	cutoff := s.cutoff()

	var total int64
	deleted := make(map[uuid.UUID][]int64)

	for {
		refs, err := s.records.DeleteCreatedBefore(ctx, cutoff, s.cfg.SweepBatchSize)
		if err != nil {
			s.evict(ctx, deleted)
			span.RecordError(err)
			s.log.ErrorContext(ctx, "retention sweep failed",
				slog.Bool("alert", true),
				slog.Int64("deleted", total),
				slog.Time("cutoff", cutoff),
				slog.String("error", err.Error()),
			)
			return total, fmt.Errorf("sweep expired records: %w", err)
		}

		total += int64(len(refs))
		for _, ref := range refs {
			deleted[ref.UserID] = append(deleted[ref.UserID], ref.ID)
		}

		if len(refs) < s.cfg.SweepBatchSize {
			break
		}
	}

	s.evict(ctx, deleted)

	span.SetAttributes(attribute.Int64("deleted", total), attribute.Int("users", len(deleted)))
	s.log.InfoContext(ctx, "retention sweep finished",
		slog.Int64("deleted", total),
		slog.Int("users", len(deleted)),
		slog.Time("cutoff", cutoff),
	)

	return total, nil
}

// evict removes swept records from each affected user's cached slice.
// Cache errors are absorbed by the cache itself.
func (s *Service) evict(ctx context.Context, deleted map[uuid.UUID][]int64) {
	if len(deleted) == 0 {
		return
	}

	// Rows are already gone; evict even if the sweep's ctx was cancelled.
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.cfg.SweepConcurrency)
	for userID, ids := range deleted {
		g.Go(func() error {
			s.cache.Evict(ctx, userID, ids)
			return nil
		})
	}
	_ = g.Wait()
}
