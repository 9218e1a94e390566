// Package database opens the bun ORM handle used by every repository, applies
// the embedded goose migrations and provides the shared transaction helpers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/eligibility-idm/pkg/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open connects to the backend selected by cfg.Persistence.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	switch cfg.Persistence {
	case config.PersistencePostgres:
		return OpenPostgres(ctx, cfg.ToDbConfig())
	case config.PersistenceSQLite:
		return OpenSQLite(ctx, cfg.SQLiteDSN)
	default:
		return nil, fmt.Errorf("unsupported persistence %q", cfg.Persistence)
	}
}

// OpenPostgres builds a pgx pool through db-utils and exposes it to bun via
// the pgx database/sql adapter.
func OpenPostgres(ctx context.Context, dbConfig dbutils.DbConfig) (*bun.DB, error) {
	pool, err := dbutils.NewDbPool(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database through sqliteshim. SQLite allows one
// writer at a time and ":memory:" databases are per connection, so the pool
// is pinned to a single connection.
func OpenSQLite(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling sqlite foreign keys: %w", err)
	}
	return db, nil
}
