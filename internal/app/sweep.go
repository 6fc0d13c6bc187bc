package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/heartmarshall/undojournal/internal/config"
	"github.com/heartmarshall/undojournal/internal/service/journal"
)

type sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// newSweepScheduler registers the retention sweep on schedule. Overlapping
// runs are skipped. The caller starts and stops the returned scheduler.
func newSweepScheduler(schedule string, timeout time.Duration, svc sweeper, logger *slog.Logger) (*cron.Cron, error) {
	cl := cronLogger{log: logger.With("component", "cron")}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(schedule, func() {
		runSweep(context.Background(), svc, timeout, logger) //nolint:errcheck
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}

	return c, nil
}

// runSweep performs one retention pass bounded by timeout. SweepExpired logs
// its own failures with alert=true.
func runSweep(ctx context.Context, svc sweeper, timeout time.Duration, logger *slog.Logger) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	deleted, err := svc.SweepExpired(ctx)
	if err != nil {
		return deleted, err
	}

	logger.InfoContext(ctx, "retention sweep completed",
		slog.Int64("deleted", deleted),
		slog.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}

// RunSweep is the entry point of the one-shot sweep command.
func RunSweep(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	in, err := newInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	reg := journal.NewRegistry()
	reg.Freeze()
	svc := newJournal(cfg, logger, in, reg)

	if _, err := runSweep(ctx, svc, cfg.Journal.SweepTimeout, logger); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}
