package db

import (
	"cmp"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// The SQLite schema only grows by appending numbered files; released files are
// never edited and there are no down steps. Each file commits together with its
// schema_versions row, so a failed boot leaves the database at the last whole
// file and the next boot resumes from there.

var schemaFileName = regexp.MustCompile(`^(\d+)_[\w-]+\.sql$`)

const schemaVersionsDDL = `
CREATE TABLE IF NOT EXISTS schema_versions (
  version INTEGER PRIMARY KEY,
  file TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type schemaStep struct {
	version    int
	file       string
	statements []string
}

func migrateSchema(database *gorm.DB, files fs.FS) error {
	steps, err := readSchemaSteps(files)
	if err != nil {
		return err
	}
	if err := database.Exec(schemaVersionsDDL).Error; err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	applied, err := appliedSchemaVersions(database)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if applied[step.version] {
			continue
		}
		if err := database.Transaction(step.apply); err != nil {
			return fmt.Errorf("schema file %s: %w", step.file, err)
		}
	}
	return nil
}

func (step schemaStep) apply(tx *gorm.DB) error {
	for index, statement := range step.statements {
		if err := tx.Exec(statement).Error; err != nil {
			return fmt.Errorf("statement %d: %w", index+1, err)
		}
	}
	return tx.Exec(`INSERT INTO schema_versions (version, file) VALUES (?, ?)`, step.version, step.file).Error
}

func readSchemaSteps(files fs.FS) ([]schemaStep, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list schema files: %w", err)
	}

	steps := make([]schemaStep, 0, len(names))
	for _, name := range names {
		match := schemaFileName.FindStringSubmatch(name)
		if match == nil {
			return nil, fmt.Errorf("schema file %s: expected NNN_description.sql", name)
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("schema file %s: %w", name, err)
		}
		body, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", name, err)
		}
		statements := sqlStatements(string(body))
		if len(statements) == 0 {
			return nil, fmt.Errorf("schema file %s: no statements", name)
		}
		steps = append(steps, schemaStep{version: version, file: name, statements: statements})
	}

	slices.SortFunc(steps, func(a, b schemaStep) int { return cmp.Compare(a.version, b.version) })
	for index := 1; index < len(steps); index++ {
		if steps[index].version == steps[index-1].version {
			return nil, fmt.Errorf("schema version %d used by %s and %s", steps[index].version, steps[index-1].file, steps[index].file)
		}
	}
	return steps, nil
}

func appliedSchemaVersions(database *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := database.Raw(`SELECT version FROM schema_versions`).Scan(&versions).Error; err != nil {
		return nil, fmt.Errorf("read schema_versions: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, version := range versions {
		applied[version] = true
	}
	return applied, nil
}

// sqlStatements drops whole-line "--" comments and splits on semicolons.
// Migration files must not put semicolons inside string literals.
func sqlStatements(script string) []string {
	lines := strings.Split(script, "\n")
	code := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			code = append(code, line)
		}
	}

	var statements []string
	for _, chunk := range strings.Split(strings.Join(code, "\n"), ";") {
		if statement := strings.TrimSpace(chunk); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}
