package db

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	embeddedmigrations "github.com/terraincognita07/fastlog/migrations"
	"gorm.io/gorm"
)

func OpenSQLite(dbPath string, logger *slog.Logger) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	migrations, err := fs.Sub(embeddedmigrations.SQLite, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("load sqlite migrations: %w", err)
	}
	if err := migrateSchema(database, migrations); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return database, nil
}
