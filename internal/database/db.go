// Package database provides database connection management and schema migration.
package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/lectio-edu/lectio/internal/config"
	"github.com/lectio-edu/lectio/schemas"
)

const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultSQLiteDSN   = "file:lectio.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	defaultPostgresDSN = "postgres://localhost:5432/lectio?sslmode=disable"
)

// Open opens a connection pool for the configured driver. It does not connect until first use.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driverName, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return db, nil
}

func dataSource(cfg config.DatabaseConfig) (driverName string, dsn string, err error) {
	switch cfg.Driver {
	case DriverMySQL, "":
		if cfg.DSN != "" {
			return "mysql", cfg.DSN, nil
		}
		return "mysql", mysqlDSN(cfg), nil
	case DriverSQLite:
		if cfg.DSN != "" {
			return "sqlite", cfg.DSN, nil
		}
		return "sqlite", defaultSQLiteDSN, nil
	case DriverPostgres:
		if cfg.DSN != "" {
			return "pgx", cfg.DSN, nil
		}
		return "pgx", defaultPostgresDSN, nil
	}
	return "", "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Database
	mysqlCfg.ParseTime = true
	if cfg.TLS {
		mysqlCfg.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		mysqlCfg.Params = cfg.Params
	}
	return mysqlCfg.FormatDSN()
}

// Migrate applies the embedded schema files for the connection's driver in file name order.
// Every statement is idempotent, so Migrate is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	if driver == "" {
		driver = DriverMySQL
	}
	dir := path.Join("migrations", driver)
	entries, err := fs.ReadDir(schemas.Migrations, dir)
	if err != nil {
		return fmt.Errorf("unsupported database driver %s: %w", driver, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(schemas.Migrations, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("fs.ReadFile(%s) > %w", name, err)
		}
		if err := RunInTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
			for _, statement := range splitStatements(string(content)) {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		slog.Default().Debug("applied migration", "driver", driver, "file", name)
	}
	return nil
}

func splitStatements(script string) []string {
	var statements []string
	for _, s := range strings.Split(script, ";") {
		s = strings.TrimSpace(s)
		if s != "" {
			statements = append(statements, s)
		}
	}
	return statements
}

// RunInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
