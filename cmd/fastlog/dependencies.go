package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/terraincognita07/fastlog/internal/blob"
	"github.com/terraincognita07/fastlog/internal/config"
	"github.com/terraincognita07/fastlog/internal/db"
	"github.com/terraincognita07/fastlog/internal/events"
	"github.com/terraincognita07/fastlog/internal/memstore"
	"github.com/terraincognita07/fastlog/internal/metrics"
	"github.com/terraincognita07/fastlog/internal/redisstore"
	"github.com/terraincognita07/fastlog/internal/services"
	"github.com/terraincognita07/fastlog/internal/storage"
)

// dependencies owns every long-lived connection the process opens.
type dependencies struct {
	store     storage.Store
	sessions  storage.SessionStore
	redis     *redis.Client
	blobs     blob.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func openDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (deps *dependencies, err error) {
	deps = &dependencies{metrics: metrics.New(), logger: logger}
	defer func() {
		if err != nil {
			deps.Close()
			deps = nil
		}
	}()

	if deps.store, err = openStore(ctx, cfg.Storage, logger); err != nil {
		return deps, err
	}

	deps.sessions = deps.store.Sessions()
	if cfg.Session.Backend == config.SessionBackendRedis {
		if deps.redis, err = redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			return deps, fmt.Errorf("redis init failed: %w", err)
		}
		deps.sessions = redisstore.NewSessionStore(deps.redis, "")
	}

	if deps.blobs, err = openBlobStore(ctx, cfg.Blob, logger); err != nil {
		return deps, err
	}

	deps.publisher = events.Nop{}
	if cfg.Events.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logger)
		if err != nil {
			return deps, fmt.Errorf("events init failed: %w", err)
		}
		deps.publisher = publisher
	}
	return deps, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		database, err := db.OpenSQLite(cfg.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		return db.NewStore(database), nil
	case config.StoragePostgres:
		database, err := db.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		return db.NewStore(database), nil
	case config.StorageMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (blob.Store, error) {
	switch cfg.Backend {
	case config.BlobBackendLocal:
		store, err := blob.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("upload dir init failed: %w", err)
		}
		return store, nil
	case config.BlobBackendS3:
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 init failed: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

func (deps *dependencies) services(cfg config.Config, logger *slog.Logger) (*services.AuthService, *services.FastService, *services.MealService) {
	activity := services.NewActivityRecorder(deps.publisher, deps.metrics, logger)
	auth := services.NewAuthService(deps.store, deps.sessions, deps.blobs, services.AuthOptions{
		SessionTTL:     cfg.Session.TTL,
		AvatarMaxBytes: cfg.Blob.AvatarMaxBytes,
		Logger:         logger,
	})
	fasts := services.NewFastService(deps.store, activity)
	meals := services.NewMealService(deps.store, fasts, activity)
	return auth, fasts, meals
}

func (deps *dependencies) Close() {
	var errs []error
	if deps.publisher != nil {
		errs = append(errs, deps.publisher.Close())
	}
	if deps.redis != nil {
		errs = append(errs, deps.redis.Close())
	}
	if deps.store != nil {
		errs = append(errs, deps.store.Close())
	}
	if err := errors.Join(errs...); err != nil && deps.logger != nil {
		deps.logger.Warn("closing dependencies failed", "error", err)
	}
}
