// Command migrate applies the embedded schema migrations and exits.
//
//	go run ./cmd/migrate [-database postgres://...]
//
// Without -database it uses DATABASE_URL, then the SQLITE_PATH file.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/storage/db"
	"resume-tailor/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg := config.Load()
	databaseURL := flag.String("database", "", "database URL or sqlite path (overrides DATABASE_URL)")
	flag.Parse()

	target := strings.TrimSpace(*databaseURL)
	if target == "" {
		target = strings.TrimSpace(cfg.DatabaseURL)
	}
	if target == "" {
		target = "sqlite:" + cfg.SQLitePath
	}

	ctx := context.Background()
	conn, dialect, err := db.Connect(ctx, target, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		fail("migrate.connect_failed", err)
	}
	defer conn.Close()

	version, err := db.RunMigrations(ctx, conn, dialect)
	if err != nil {
		conn.Close()
		fail("migrate.failed", err)
	}
	telemetry.Info("migrate.done", map[string]any{"dialect": string(dialect), "schema_version": version})
}

func fail(event string, err error) {
	telemetry.Error(event, map[string]any{"err": err})
	telemetry.Sync()
	os.Exit(1)
}
