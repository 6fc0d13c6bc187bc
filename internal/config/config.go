package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Journal   JournalConfig   `yaml:"journal"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AppName         string        `yaml:"app_name"           env:"DATABASE_APP_NAME"           env-default:"undojournal"`
}

// RedisConfig holds settings for the fast-path cache backend.
// An empty Addr disables the cache; every read then goes to PostgreSQL.
type RedisConfig struct {
	Addr               string        `yaml:"addr"                 env:"REDIS_ADDR"`
	Password           string        `yaml:"password"             env:"REDIS_PASSWORD"`
	DB                 int           `yaml:"db"                   env:"REDIS_DB"                   env-default:"0"`
	DialTimeout        time.Duration `yaml:"dial_timeout"         env:"REDIS_DIAL_TIMEOUT"         env-default:"5s"`
	OpTimeout          time.Duration `yaml:"op_timeout"           env:"REDIS_OP_TIMEOUT"           env-default:"200ms"`
	KeyPrefix          string        `yaml:"key_prefix"           env:"REDIS_KEY_PREFIX"           env-default:"undojournal"`
	BreakerMaxFailures int           `yaml:"breaker_max_failures" env:"REDIS_BREAKER_MAX_FAILURES" env-default:"5"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout"      env:"REDIS_BREAKER_TIMEOUT"      env-default:"30s"`
}

// Enabled reports whether a cache backend is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig holds bearer token settings. Tokens are minted by the chat
// front-ends with the shared secret; the subject is the user ID.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"undojournal"`
}

// Lock modes for per-user serialization.
const (
	LockModeAdvisory = "advisory"
	LockModeLocal    = "local"
)

// JournalConfig holds undo journal settings.
type JournalConfig struct {
	RetentionDays    int           `yaml:"retention_days"    env:"JOURNAL_RETENTION_DAYS"    env-default:"7"`
	CacheSize        int           `yaml:"cache_size"        env:"JOURNAL_CACHE_SIZE"        env-default:"10"`
	CacheTTL         time.Duration `yaml:"cache_ttl"         env:"JOURNAL_CACHE_TTL"         env-default:"1h"`
	OperationTimeout time.Duration `yaml:"operation_timeout" env:"JOURNAL_OPERATION_TIMEOUT" env-default:"10s"`
	LockMode         string        `yaml:"lock_mode"         env:"JOURNAL_LOCK_MODE"         env-default:"advisory"`
	SweepSchedule    string        `yaml:"sweep_schedule"    env:"JOURNAL_SWEEP_SCHEDULE"    env-default:"@daily"`
	SweepTimeout     time.Duration `yaml:"sweep_timeout"     env:"JOURNAL_SWEEP_TIMEOUT"     env-default:"5m"`
	SweepBatchSize   int           `yaml:"sweep_batch_size"  env:"JOURNAL_SWEEP_BATCH_SIZE"  env-default:"5000"`
}

// Retention returns the retention window as a duration.
func (c JournalConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// RateLimitConfig holds per-user limits for journal mutations.
type RateLimitConfig struct {
	UndoPerMinute int `yaml:"undo_per_minute" env:"RATE_LIMIT_UNDO_PER_MINUTE" env-default:"30"`
	Burst         int `yaml:"burst"           env:"RATE_LIMIT_BURST"           env-default:"5"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	TracingEnabled bool   `yaml:"tracing_enabled" env:"TELEMETRY_TRACING_ENABLED" env-default:"false"`
	ServiceName    string `yaml:"service_name"    env:"TELEMETRY_SERVICE_NAME"    env-default:"undojournal"`
}
