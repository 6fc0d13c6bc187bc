// Package journal implements the undo/redo action journal: recording
// reversible actions, undoing and redoing them under a per-user lock, listing
// history and sweeping expired records.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartmarshall/undojournal/internal/domain"
)

const tracerName = "github.com/heartmarshall/undojournal/internal/service/journal"

type recordRepo interface {
	Create(ctx context.Context, rec *domain.UndoRecord) (*domain.UndoRecord, error)
	GetByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.UndoRecord, error)
	GetLatestForUpdate(ctx context.Context, userID uuid.UUID, undone bool, notBefore time.Time) (*domain.UndoRecord, error)
	HasNewer(ctx context.Context, userID uuid.UUID, undone bool, rec *domain.UndoRecord) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) ([]*domain.UndoRecord, error)
	SetUndone(ctx context.Context, userID uuid.UUID, id int64, undone bool, at time.Time) (*domain.UndoRecord, error)
	DeleteCreatedBefore(ctx context.Context, threshold time.Time, limit int) ([]domain.RecordRef, error)
}

type recentCache interface {
	Recent(ctx context.Context, userID uuid.UUID) ([]*domain.UndoRecord, bool)
	Generation(ctx context.Context, userID uuid.UUID) (uint64, bool)
	Store(ctx context.Context, userID uuid.UUID, gen uint64, records []*domain.UndoRecord)
	Push(ctx context.Context, rec *domain.UndoRecord)
	Replace(ctx context.Context, rec *domain.UndoRecord)
	Evict(ctx context.Context, userID uuid.UUID, ids []int64)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
}

// userLocker serializes undo/redo per user. Lock is called inside the
// engine's transaction; the returned func is called after it ends.
type userLocker interface {
	Lock(ctx context.Context, userID uuid.UUID) (func(), error)
}

// Config holds journal tuning.
type Config struct {
	Retention        time.Duration
	CacheSize        int
	OperationTimeout time.Duration
	SweepBatchSize   int
	// SweepConcurrency bounds parallel cache evictions after a sweep.
	SweepConcurrency int
	// HandlerStopGrace is how long a timed-out handler may take to return
	// before its transaction is rolled back underneath it.
	HandlerStopGrace time.Duration
}

// Service is the undo/redo action journal.
type Service struct {
	records  recordRepo
	cache    recentCache
	tx       txManager
	locker   userLocker
	handlers *Registry
	cfg      Config
	now      func() time.Time
	tracer   trace.Tracer
	log      *slog.Logger
}

// NewService creates a new journal Service. A nil cache disables the fast path.
func NewService(
	log *slog.Logger,
	records recordRepo,
	cache recentCache,
	tx txManager,
	locker userLocker,
	handlers *Registry,
	cfg Config,
) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = 8
	}
	if cfg.HandlerStopGrace <= 0 {
		cfg.HandlerStopGrace = 2 * time.Second
	}
	return &Service{
		records:  records,
		cache:    cache,
		tx:       tx,
		locker:   locker,
		handlers: handlers,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer(tracerName),
		log:      log.With("service", "journal"),
	}
}

// cutoff is the oldest created_at still inside the retention window.
func (s *Service) cutoff() time.Time {
	return s.now().Add(-s.cfg.Retention)
}
