package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/heartmarshall/undojournal/internal/adapter/postgres/task"
	"github.com/heartmarshall/undojournal/internal/auth"
	"github.com/heartmarshall/undojournal/internal/config"
	"github.com/heartmarshall/undojournal/internal/service/journal"
	tasksvc "github.com/heartmarshall/undojournal/internal/service/task"
	"github.com/heartmarshall/undojournal/internal/transport/middleware"
	"github.com/heartmarshall/undojournal/internal/transport/rest"
)

// Run is the server entry point. It wires the journal, the task collaborator
// and the HTTP surface, schedules the retention sweep, and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("lock_mode", cfg.Journal.LockMode),
		slog.Bool("cache_enabled", cfg.Redis.Enabled()),
	)

	shutdownTracing, err := initTracing(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := newInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	// Handlers are registered once, before any traffic.
	reg := journal.NewRegistry()
	journalSvc := newJournal(cfg, logger, in, reg)
	taskService := tasksvc.NewService(logger, task.New(in.pool), journalSvc, in.tx)
	if err := taskService.RegisterHandlers(reg); err != nil {
		return fmt.Errorf("register undo handlers: %w", err)
	}
	reg.Freeze()
	logger.Info("undo handlers registered", slog.Any("handlers", reg.Names()))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.UndoPerMinute, cfg.RateLimit.Burst, time.Minute)
	defer limiter.Stop()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	router := rest.NewRouter(rest.Handlers{
		Health:  rest.NewHealthHandler(in.pool, in.cacheChecker(), BuildVersion()),
		Journal: rest.NewJournalHandler(journalSvc, logger),
		Tasks:   rest.NewTaskHandler(taskService, logger),
		Admin:   rest.NewAdminHandler(journalSvc, logger),
	}, limiter, middleware.Standard(logger, jwtManager))

	scheduler, err := newSweepScheduler(cfg.Journal.SweepSchedule, cfg.Journal.SweepTimeout, journalSvc, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
