package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	Events    EventsConfig    `yaml:"events"`
	Mail      MailConfig      `yaml:"mail"`
	Retention RetentionConfig `yaml:"retention"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name" env:"APP_NAME" env-default:"helpdesk"`
	Env                   string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Host                  string `yaml:"host" env:"APP_HOST" env-default:"0.0.0.0"`
	Port                  string `yaml:"port" env:"APP_PORT" env-default:"8080"`
	Version               string `yaml:"version" env:"APP_VERSION" env-default:"dev"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"POSTGRES_DSN"`
	MaxConns       int32  `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns       int32  `yaml:"min_conns" env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations  bool   `yaml:"run_migrations" env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	MigrationsDir  string `yaml:"migrations_dir" env:"POSTGRES_MIGRATIONS_DIR" env-default:"migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds" env:"POSTGRES_CONN_MAX_IDLE_SECONDS" env-default:"30"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds" env:"POSTGRES_CONN_MAX_LIFE_SECONDS" env-default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	AccessTokenTTL      time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"1h"`
	SessionTTL          time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"24h"`
	PasswordResetTTL    time.Duration `yaml:"password_reset_ttl" env:"AUTH_PASSWORD_RESET_TTL" env-default:"15m"`
	BcryptCost          int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"12"`
	RotateRefreshTokens bool          `yaml:"rotate_refresh_tokens" env:"AUTH_ROTATE_REFRESH_TOKENS" env-default:"false"`
}

// EventsConfig selects and tunes the company change bus.
type EventsConfig struct {
	Driver      string        `yaml:"driver" env:"EVENTS_DRIVER" env-default:"memory"`
	Stream      string        `yaml:"stream" env:"EVENTS_STREAM" env-default:"helpdesk.company"`
	Group       string        `yaml:"group" env:"EVENTS_GROUP" env-default:"ticket-propagator"`
	Consumer    string        `yaml:"consumer" env:"EVENTS_CONSUMER" env-default:"helpdesk-1"`
	Block       time.Duration `yaml:"block" env:"EVENTS_BLOCK" env-default:"5s"`
	ReclaimIdle time.Duration `yaml:"reclaim_idle" env:"EVENTS_RECLAIM_IDLE" env-default:"1m"`
	DedupeTTL   time.Duration `yaml:"dedupe_ttl" env:"EVENTS_DEDUPE_TTL" env-default:"168h"`
	QueueSize   int           `yaml:"queue_size" env:"EVENTS_QUEUE_SIZE" env-default:"256"`
}

// MailConfig holds outbound mail settings. An empty SMTPAddr logs mail instead of sending it.
type MailConfig struct {
	From         string `yaml:"from" env:"MAIL_FROM" env-default:"noreply@example.com"`
	SMTPAddr     string `yaml:"smtp_addr" env:"MAIL_SMTP_ADDR"`
	SMTPUser     string `yaml:"smtp_user" env:"MAIL_SMTP_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"MAIL_SMTP_PASSWORD"`
	ResetURL     string `yaml:"reset_url" env:"MAIL_RESET_URL" env-default:"http://localhost:3000/reset-password"`
}

// RetentionConfig drives the session record sweeper.
type RetentionConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"RETENTION_SWEEP_INTERVAL" env-default:"10m"`
	SessionMaxAge time.Duration `yaml:"session_max_age" env:"RETENTION_SESSION_MAX_AGE" env-default:"24h"`
}

// BootstrapConfig seeds the first administrator on an empty user table.
type BootstrapConfig struct {
	Email    string `yaml:"email" env:"DEFAULT_USER_EMAIL"`
	Password string `yaml:"password" env:"DEFAULT_USER_PASSWORD"`
	Name     string `yaml:"name" env:"DEFAULT_USER_USERNAME" env-default:"admin"`
}

// Load reads configuration from a .env file, an optional YAML file and the environment.
// Environment variables win over YAML values.
func Load(envFile, configPath string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("AUTH_SESSION_TTL must be positive")
	}
	switch c.Events.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown EVENTS_DRIVER %q", c.Events.Driver)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}
