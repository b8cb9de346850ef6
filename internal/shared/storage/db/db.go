package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"resume-tailor/internal/shared/telemetry"
)

// Dialect names the SQL flavor behind a connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var numberedPlaceholder = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders for drivers that only take "?".
// Each $N must appear once and in ascending order.
func (d Dialect) Rebind(query string) string {
	if d != DialectSQLite {
		return query
	}
	return numberedPlaceholder.ReplaceAllString(query, "?")
}

// Options tunes the connection pool. Zero fields fall back to the server defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultServerOptions suits the API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
	}
}

// DefaultMigrateOptions suits the one-shot migrate command.
func DefaultMigrateOptions() Options {
	opts := DefaultServerOptions()
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1
	return opts
}

// OptionsFromEnv applies DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME, DB_CONN_MAX_IDLE_TIME and DB_PING_TIMEOUT over defaults.
// Unparseable values are logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	for key, dst := range map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
	} {
		raw, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			telemetry.Warn("db.env_invalid", map[string]any{"key": key, "value": raw, "err": err})
			continue
		}
		*dst = v
	}
	for key, dst := range map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
	} {
		raw, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			telemetry.Warn("db.env_invalid", map[string]any{"key": key, "value": raw, "err": err})
			continue
		}
		*dst = v
	}
	return opts
}

// DialectFor picks the dialect from a connection string: postgres URLs and
// key=value DSNs go to pgx, anything else is treated as a SQLite path.
func DialectFor(databaseURL string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(databaseURL))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	if strings.Contains(lower, "host=") && strings.Contains(lower, "dbname=") {
		return DialectPostgres
	}
	return DialectSQLite
}

var openDB = sql.Open

// Connect opens and pings the database behind databaseURL. SQLite is pinned
// to a single connection and its parent directory is created if missing.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, Dialect, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, "", fmt.Errorf("database url is empty")
	}

	dialect := DialectFor(databaseURL)
	driver, dsn := "pgx", databaseURL
	if dialect == DialectSQLite {
		driver, dsn = "sqlite", sqliteDSN(databaseURL)
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, "", err
		}
		opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxIdleTime = 1, 1, 0
	}

	conn, err := openDB(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", dialect, err)
	}
	configurePool(conn, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = DefaultServerOptions().PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("ping %s database: %w", dialect, err)
	}

	stats := conn.Stats()
	telemetry.Info("db.connected", map[string]any{
		"dialect":  string(dialect),
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
	})
	return conn, dialect, nil
}

// sqliteDSN turns "sqlite:path" or a bare path into a modernc DSN with
// foreign keys and a busy timeout, unless the caller already set pragmas.
func sqliteDSN(raw string) string {
	dsn := strings.TrimSpace(raw)
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		dsn = strings.TrimPrefix(dsn, prefix)
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func ensureSQLiteDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}

func configurePool(conn *sql.DB, opts Options) {
	def := DefaultServerOptions()
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = def.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = def.ConnMaxLifetime
	}
	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
