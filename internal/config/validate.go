package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Journal.validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	if c.RateLimit.UndoPerMinute <= 0 {
		return fmt.Errorf("rate_limit.undo_per_minute must be > 0 (got %d)", c.RateLimit.UndoPerMinute)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0 (got %d)", c.RateLimit.Burst)
	}

	if c.Redis.Enabled() && c.Redis.BreakerMaxFailures <= 0 {
		return fmt.Errorf("redis.breaker_max_failures must be > 0 (got %d)", c.Redis.BreakerMaxFailures)
	}

	return nil
}

func (j *JournalConfig) validate() error {
	if j.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be > 0 (got %d)", j.RetentionDays)
	}
	if j.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be > 0 (got %d)", j.CacheSize)
	}
	if j.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be > 0 (got %v)", j.CacheTTL)
	}
	if j.OperationTimeout <= 0 {
		return fmt.Errorf("operation_timeout must be > 0 (got %v)", j.OperationTimeout)
	}
	if j.SweepBatchSize <= 0 {
		return fmt.Errorf("sweep_batch_size must be > 0 (got %d)", j.SweepBatchSize)
	}

	j.LockMode = strings.ToLower(strings.TrimSpace(j.LockMode))
	switch j.LockMode {
	case LockModeAdvisory, LockModeLocal:
	default:
		return fmt.Errorf("lock_mode must be %q or %q (got %q)", LockModeAdvisory, LockModeLocal, j.LockMode)
	}

	if _, err := cron.ParseStandard(j.SweepSchedule); err != nil {
		return fmt.Errorf("sweep_schedule: %w", err)
	}

	return nil
}
