// Package config loads process settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"

	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SessionBackendStore = "store"
	SessionBackendRedis = "redis"

	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	Port      int    `env:"PORT" envDefault:"8080"`
	SecretKey string `env:"SECRET_KEY"`
	TimeZone  string `env:"TZ" envDefault:"UTC"`

	Storage StorageConfig
	Session SessionConfig
	Redis   RedisConfig
	Blob    BlobConfig
	Login   LoginConfig
	Events  EventsConfig
	Log     LogConfig

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:","`
}

type StorageConfig struct {
	Driver      string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"data/fastlog.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type SessionConfig struct {
	Backend string        `env:"SESSION_BACKEND" envDefault:"store"`
	TTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type BlobConfig struct {
	Backend        string `env:"BLOB_BACKEND" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	AvatarMaxBytes int64  `env:"AVATAR_MAX_BYTES" envDefault:"5242880"`

	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3UseSSL          bool   `env:"S3_USE_SSL" envDefault:"false"`
}

type LoginConfig struct {
	AttemptLimit  int           `env:"LOGIN_ATTEMPT_LIMIT" envDefault:"10"`
	AttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`
}

type EventsConfig struct {
	AMQPURL string `env:"EVENTS_AMQP_URL"`
	Queue   string `env:"EVENTS_QUEUE" envDefault:"fastlog.events"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads .env when present, then the environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	cfg.Blob.Backend = strings.ToLower(strings.TrimSpace(cfg.Blob.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	origins := cfg.CORSAllowOrigins[:0]
	for _, origin := range cfg.CORSAllowOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.CORSAllowOrigins = origins
}

func (cfg Config) Validate() error {
	if err := validateSecretKey(cfg.SecretKey); err != nil {
		return err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}

	switch cfg.Storage.Driver {
	case StorageSQLite:
		if cfg.Storage.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case StoragePostgres:
		if cfg.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	switch cfg.Session.Backend {
	case SessionBackendStore:
	case SessionBackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	switch cfg.Blob.Backend {
	case BlobBackendLocal, BlobBackendS3:
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", cfg.Blob.Backend)
	}
	if cfg.Blob.AvatarMaxBytes <= 0 {
		return errors.New("AVATAR_MAX_BYTES must be positive")
	}

	if cfg.Login.AttemptLimit <= 0 || cfg.Login.AttemptWindow <= 0 {
		return errors.New("LOGIN_ATTEMPT_LIMIT and LOGIN_ATTEMPT_WINDOW must be positive")
	}

	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", cfg.Log.Format)
	}
	return nil
}

func validateSecretKey(secret string) error {
	if secret == "" {
		return errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return nil
}

func (cfg Config) IsProduction() bool {
	return cfg.AppEnv == EnvProduction
}

func (cfg Config) ListenAddr() string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// Location resolves TZ, falling back to UTC for unknown zones.
func (cfg Config) Location() *time.Location {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return time.UTC
	}
	return location
}
