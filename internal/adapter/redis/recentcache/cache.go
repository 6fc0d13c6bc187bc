// Package recentcache keeps each user's most recent undo records in Redis.
//
// A user's slice is stored as one JSON array so an empty history is a valid
// hit. The cache is never authoritative: every failure is logged and turned
// into a miss or a no-op, and a circuit breaker stops hammering Redis while it
// is down.
package recentcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/heartmarshall/undojournal/internal/domain"
)

// Options configures a Cache.
type Options struct {
	KeyPrefix          string
	Size               int
	TTL                time.Duration
	OpTimeout          time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// Cache is the Redis-backed fast-path cache.
type Cache struct {
	rdb     *goredis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	opts    Options
	log     *slog.Logger
}

// New creates a Cache over an already connected client.
func New(rdb *goredis.Client, opts Options, log *slog.Logger) *Cache {
	log = log.With("component", "recentcache")

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis-recentcache",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= opts.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// A missing key, a lost optimistic race or a skipped fill is Redis
		// working normally.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, goredis.Nil) ||
				errors.Is(err, goredis.TxFailedErr) ||
				errors.Is(err, errStaleFill)
		},
	})

	return &Cache{rdb: rdb, breaker: cb, opts: opts, log: log}
}

// errStaleFill aborts a Store whose snapshot predates a cache write.
var errStaleFill = errors.New("history changed since the fill was read")

func (c *Cache) key(userID uuid.UUID) string {
	return c.opts.KeyPrefix + ":recent:" + userID.String()
}

// genKey holds the user's write generation. Every write bumps it, so a fill
// read from the store before a write can be recognised and discarded.
func (c *Cache) genKey(userID uuid.UUID) string {
	return c.key(userID) + ":gen"
}

// genTTL outlives the slice so a generation read before a fill is still
// there when the fill is stored.
func (c *Cache) genTTL() time.Duration {
	return 2 * c.opts.TTL
}

// Generation returns the user's write generation. Callers read it before
// loading a fill from the store and hand it back to Store. ok is false when
// Redis cannot be read; the fill must then be skipped.
func (c *Cache) Generation(ctx context.Context, userID uuid.UUID) (uint64, bool) {
	raw, err := c.do(ctx, func(ctx context.Context) ([]byte, error) {
		return c.rdb.Get(ctx, c.genKey(userID)).Bytes()
	})
	switch {
	case errors.Is(err, goredis.Nil):
		return 0, true
	case err != nil:
		c.warn(ctx, "generation", userID, err)
		return 0, false
	}

	gen, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		c.warn(ctx, "generation", userID, err)
		return 0, false
	}
	return gen, true
}

// Recent returns the cached slice for a user, most recent first.
// ok is false on a miss, an expired entry, or any Redis failure.
func (c *Cache) Recent(ctx context.Context, userID uuid.UUID) ([]*domain.UndoRecord, bool) {
	raw, err := c.do(ctx, func(ctx context.Context) ([]byte, error) {
		return c.rdb.Get(ctx, c.key(userID)).Bytes()
	})
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.warn(ctx, "recent", userID, err)
		}
		return nil, false
	}

	records, err := decode(raw)
	if err != nil {
		c.warn(ctx, "decode", userID, err)
		c.Invalidate(ctx, userID)
		return nil, false
	}

	return records, true
}

// Store replaces the user's slice with records (already ordered most recent
// first), trimmed to the configured size, and starts a fresh TTL. gen is the
// Generation read before records were loaded; if any write happened since,
// records may miss it and nothing is stored.
func (c *Cache) Store(ctx context.Context, userID uuid.UUID, gen uint64, records []*domain.UndoRecord) {
	if len(records) > c.opts.Size {
		records = records[:c.opts.Size]
	}

	raw, err := encode(records)
	if err != nil {
		c.warn(ctx, "encode", userID, err)
		return
	}

	key, genKey := c.key(userID), c.genKey(userID)

	_, err = c.do(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			cur, err := tx.Get(ctx, genKey).Uint64()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return err
			}
			if cur != gen {
				return errStaleFill
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, raw, c.opts.TTL)
				return nil
			})
			return err
		}, genKey)
	})
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, goredis.TxFailedErr):
		c.log.DebugContext(ctx, "cache fill skipped",
			slog.String("user_id", userID.String()),
			slog.Uint64("generation", gen),
		)
	default:
		c.warn(ctx, "store", userID, err)
	}
}

// Push adds a newly recorded action to the user's slice, evicting the oldest
// entry when over capacity. Without a cached slice it only bumps the
// generation: the next read repopulates from the store.
func (c *Cache) Push(ctx context.Context, rec *domain.UndoRecord) {
	c.update(ctx, "push", rec.UserID, func(records []*domain.UndoRecord) ([]*domain.UndoRecord, bool) {
		records = slices.DeleteFunc(records, func(r *domain.UndoRecord) bool { return r.ID == rec.ID })
		records = append(records, rec)
		slices.SortFunc(records, func(a, b *domain.UndoRecord) int {
			if a.MoreRecentThan(b) {
				return -1
			}
			return 1
		})
		if len(records) > c.opts.Size {
			records = records[:c.opts.Size]
		}
		return records, true
	})
}

// Replace updates the cached copy of rec in place. If rec is not in the
// user's slice the slice cannot be trusted and the whole entry is dropped.
func (c *Cache) Replace(ctx context.Context, rec *domain.UndoRecord) {
	c.update(ctx, "replace", rec.UserID, func(records []*domain.UndoRecord) ([]*domain.UndoRecord, bool) {
		i := slices.IndexFunc(records, func(r *domain.UndoRecord) bool { return r.ID == rec.ID })
		if i < 0 {
			return nil, false
		}
		records[i] = rec
		return records, true
	})
}

// Evict removes the given record IDs from the user's slice.
func (c *Cache) Evict(ctx context.Context, userID uuid.UUID, ids []int64) {
	c.update(ctx, "evict", userID, func(records []*domain.UndoRecord) ([]*domain.UndoRecord, bool) {
		return slices.DeleteFunc(records, func(r *domain.UndoRecord) bool {
			return slices.Contains(ids, r.ID)
		}), true
	})
}

// Invalidate drops the user's slice and bumps the generation so an
// in-flight fill is discarded too.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) {
	_, err := c.do(ctx, func(ctx context.Context) ([]byte, error) {
		_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, c.key(userID))
			c.bump(ctx, pipe, userID)
			return nil
		})
		return nil, err
	})
	if err != nil {
		c.warn(ctx, "invalidate", userID, err)
	}
}

// HealthCheck reports the cache availability from the breaker state and a PING.
func (c *Cache) HealthCheck(ctx context.Context) error {
	switch c.breaker.State() {
	case gobreaker.StateOpen:
		return errors.New("redis: failing (circuit breaker open)")
	case gobreaker.StateHalfOpen:
		return errors.New("redis: degraded (circuit breaker half-open)")
	}

	_, err := c.do(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, c.rdb.Ping(ctx).Err()
	})
	return err
}

// bump queues a generation increment on pipe.
func (c *Cache) bump(ctx context.Context, pipe goredis.Pipeliner, userID uuid.UUID) {
	genKey := c.genKey(userID)
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, c.genTTL())
}

// update applies fn to the cached slice under WATCH so concurrent writers
// never interleave, and bumps the generation even when there is no slice.
// keep=false deletes the key. A lost race or a decode failure drops the key
// instead of retrying.
func (c *Cache) update(ctx context.Context, op string, userID uuid.UUID, fn func([]*domain.UndoRecord) ([]*domain.UndoRecord, bool)) {
	key := c.key(userID)

	_, err := c.do(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
					c.bump(ctx, pipe, userID)
					return nil
				})
				return err
			}
			if err != nil {
				return err
			}

			records, err := decode(raw)
			if err != nil {
				return err
			}

			next, keep := fn(records)

			var payload []byte
			if keep {
				if payload, err = encode(next); err != nil {
					return err
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				if keep {
					pipe.SetArgs(ctx, key, payload, goredis.SetArgs{KeepTTL: true})
				} else {
					pipe.Del(ctx, key)
				}
				c.bump(ctx, pipe, userID)
				return nil
			})
			return err
		}, key)
	})
	if err == nil {
		return
	}

	if !errors.Is(err, goredis.TxFailedErr) {
		c.warn(ctx, op, userID, err)
	}
	c.Invalidate(ctx, userID)
}

// do runs fn through the circuit breaker with the per-operation timeout.
func (c *Cache) do(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if c.opts.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.OpTimeout)
		defer cancel()
	}

	return c.breaker.Execute(func() ([]byte, error) {
		return fn(ctx)
	})
}

func (c *Cache) warn(ctx context.Context, op string, userID uuid.UUID, err error) {
	c.log.WarnContext(ctx, "cache operation failed",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.String("error", err.Error()),
	)
}

// ---------------------------------------------------------------------------
// JSON encoding
// ---------------------------------------------------------------------------

// cachedRecord is the JSON form of domain.UndoRecord.
// Domain types have no json tags, so the adapter handles serialization.
type cachedRecord struct {
	ID          int64          `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	ActionType  string         `json:"action_type"`
	ActionData  domain.Payload `json:"action_data"`
	UndoHandler string         `json:"undo_handler"`
	UndoData    domain.Payload `json:"undo_data"`
	Description string         `json:"description"`
	Metadata    domain.Payload `json:"metadata,omitempty"`
	IsUndone    bool           `json:"is_undone"`
	CreatedAt   time.Time      `json:"created_at"`
	UndoneAt    *time.Time     `json:"undone_at,omitempty"`
	RedoneAt    *time.Time     `json:"redone_at,omitempty"`
}

func encode(records []*domain.UndoRecord) ([]byte, error) {
	out := make([]cachedRecord, len(records))
	for i, r := range records {
		out[i] = cachedRecord{
			ID:          r.ID,
			UserID:      r.UserID,
			ActionType:  r.ActionType,
			ActionData:  r.ActionData,
			UndoHandler: r.UndoHandler,
			UndoData:    r.UndoData,
			Description: r.Description,
			Metadata:    r.Metadata,
			IsUndone:    r.IsUndone,
			CreatedAt:   r.CreatedAt,
			UndoneAt:    r.UndoneAt,
			RedoneAt:    r.RedoneAt,
		}
	}
	return json.Marshal(out)
}

func decode(raw []byte) ([]*domain.UndoRecord, error) {
	var in []cachedRecord
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode cached records: %w", err)
	}

	records := make([]*domain.UndoRecord, len(in))
	for i, r := range in {
		records[i] = &domain.UndoRecord{
			ID:          r.ID,
			UserID:      r.UserID,
			ActionType:  r.ActionType,
			ActionData:  r.ActionData,
			UndoHandler: r.UndoHandler,
			UndoData:    r.UndoData,
			Description: r.Description,
			Metadata:    r.Metadata,
			IsUndone:    r.IsUndone,
			CreatedAt:   r.CreatedAt,
			UndoneAt:    r.UndoneAt,
			RedoneAt:    r.RedoneAt,
		}
	}
	return records, nil
}
