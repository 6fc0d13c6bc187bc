package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/undojournal/internal/adapter/postgres"
	"github.com/heartmarshall/undojournal/internal/adapter/postgres/undorecord"
	"github.com/heartmarshall/undojournal/internal/adapter/redis"
	"github.com/heartmarshall/undojournal/internal/adapter/redis/recentcache"
	"github.com/heartmarshall/undojournal/internal/config"
	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
	"github.com/heartmarshall/undojournal/pkg/keylock"
)

// journalCache is the method set journal.NewService expects from a cache.
type journalCache interface {
	Recent(ctx context.Context, userID uuid.UUID) ([]*domain.UndoRecord, bool)
	Generation(ctx context.Context, userID uuid.UUID) (uint64, bool)
	Store(ctx context.Context, userID uuid.UUID, gen uint64, records []*domain.UndoRecord)
	Push(ctx context.Context, rec *domain.UndoRecord)
	Replace(ctx context.Context, rec *domain.UndoRecord)
	Evict(ctx context.Context, userID uuid.UUID, ids []int64)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type userLocker interface {
	Lock(ctx context.Context, userID uuid.UUID) (func(), error)
}

// infra holds the process-wide connections shared by the server and the
// one-shot commands.
type infra struct {
	pool  *pgxpool.Pool
	rdb   *goredis.Client
	cache *recentcache.Cache
	tx    *postgres.TxManager
}

func newInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infra, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	in := &infra{pool: pool, tx: postgres.NewTxManager(pool)}

	if !cfg.Redis.Enabled() {
		logger.Info("fast-path cache disabled")
		return in, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		// The cache is never authoritative; start without it.
		logger.Warn("fast-path cache unavailable, continuing without it",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
		return in, nil
	}

	in.rdb = rdb
	in.cache = recentcache.New(rdb, recentcache.Options{
		KeyPrefix:          cfg.Redis.KeyPrefix,
		Size:               cfg.Journal.CacheSize,
		TTL:                cfg.Journal.CacheTTL,
		OpTimeout:          cfg.Redis.OpTimeout,
		BreakerMaxFailures: cfg.Redis.BreakerMaxFailures,
		BreakerTimeout:     cfg.Redis.BreakerTimeout,
	}, logger)

	return in, nil
}

func (in *infra) journalCache() journalCache {
	if in.cache == nil {
		return journal.NopCache{}
	}
	return in.cache
}

// cacheChecker returns nil when the cache is disabled so health reports it
// as such.
func (in *infra) cacheChecker() interface{ HealthCheck(context.Context) error } {
	if in.cache == nil {
		return nil
	}
	return in.cache
}

func (in *infra) Close() {
	if in.rdb != nil {
		_ = in.rdb.Close()
	}
	in.pool.Close()
}

// newJournal builds the journal service over the shared infrastructure.
// Handlers must be registered and the registry frozen before serving.
func newJournal(cfg *config.Config, logger *slog.Logger, in *infra, reg *journal.Registry) *journal.Service {
	var locker userLocker
	switch cfg.Journal.LockMode {
	case config.LockModeLocal:
		locker = keylock.New[uuid.UUID]()
	default:
		locker = postgres.NewAdvisoryLocker()
	}

	return journal.NewService(
		logger,
		undorecord.New(in.pool),
		in.journalCache(),
		in.tx,
		locker,
		reg,
		journal.Config{
			Retention:        cfg.Journal.Retention(),
			CacheSize:        cfg.Journal.CacheSize,
			OperationTimeout: cfg.Journal.OperationTimeout,
			SweepBatchSize:   cfg.Journal.SweepBatchSize,
		},
	)
}
