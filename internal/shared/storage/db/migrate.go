package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"resume-tailor/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// gooseLog routes goose progress lines into the structured log.
type gooseLog struct{}

func (gooseLog) Printf(format string, v ...any) {
	telemetry.Info("db.migrate", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

func (gooseLog) Fatalf(format string, v ...any) {
	telemetry.Logger().Fatal(fmt.Sprintf(format, v...))
}

// RunMigrations brings the applications and base_resumes tables up to date
// and returns the resulting schema version. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, dialect Dialect) (int64, error) {
	if database == nil {
		return 0, nil
	}
	var gooseDialect string
	switch dialect {
	case DialectPostgres:
		gooseDialect = "postgres"
	case DialectSQLite:
		gooseDialect = "sqlite3"
	default:
		return 0, fmt.Errorf("unsupported dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLog{})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return 0, err
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return 0, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
