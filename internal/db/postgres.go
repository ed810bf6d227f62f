package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	embeddedmigrations "github.com/terraincognita07/fastlog/migrations"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := runPostgresMigrations(ctx, database); err != nil {
		return nil, fmt.Errorf("apply postgres migrations: %w", err)
	}
	return database, nil
}

// gooseUpContext is swapped out in tests.
var gooseUpContext = goose.UpContext

func runPostgresMigrations(ctx context.Context, database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(embeddedmigrations.Postgres)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, sqlDB, "postgres")
}
