package migrations

import "embed"

// SQLite stores forward-only SQL migrations applied by the built-in runner.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres stores goose-annotated migrations for the postgres backend.
//
//go:embed postgres/*.sql
var Postgres embed.FS
