// Package sqldb implements the repository interfaces on top of database/sql.
//
// Two drivers are supported:
//   - SQLite (modernc.org/sqlite): a local, file-backed store and the default.
//     Pure Go, so no C compiler is needed. ":memory:" gives a throwaway store for tests.
//   - Postgres (github.com/jackc/pgx/v5/stdlib) is selected by a postgres:// or
//     postgresql:// connection string.
//
// Queries are written once with `?` placeholders and rebound to `$1, $2, ...`
// for Postgres (see dialect.go).
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB   is a connection pool (NOT a single connection!)
//   - sql.Tx   is a transaction, and every write in this package runs in one
//   - sql.Row  is a single result row
//   - sql.Rows holds multiple result rows (must be closed!)
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORTS:
	// Both drivers register themselves with database/sql in their init():
	// modernc as "sqlite", pgx as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements CatalogRepository, UserRepository, FavoriteRepository and Seeder.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// New opens a SQLite database at dbPath. It is shorthand for
// Open(DialectSQLite, dbPath) and is what the tests use with ":memory:".
func New(dbPath string) (*DB, error) {
	return Open(DialectSQLite, dbPath)
}

// Open creates the connection pool for the given dialect, verifies it with a
// ping and creates any missing tables.
//
// CONNECTION POOL:
// sql.Open() does NOT actually open a connection; it just creates a pool manager.
// Ping forces a real connection so a bad path or URL fails at startup.
func Open(dialect Dialect, dsn string) (*DB, error) {
	conn, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: opening %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// SQLite has a single writer. One connection serialises writers instead of
		// failing them with SQLITE_BUSY, keeps the per-connection PRAGMAs below in
		// effect, and keeps a ":memory:" database alive for the whole pool.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: pinging %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// WAL lets readers proceed while a write is in flight (ignored for ":memory:").
		// Foreign keys are OFF by default in SQLite; the schema relies on them.
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("sqldb: %s: %w", pragma, err)
			}
		}
	}

	db := &DB{conn: conn, dialect: dialect}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: running migrations: %w", err)
	}

	return db, nil
}

// Dialect reports which database the pool talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping checks the pool can still reach the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
//
//	db, err := sqldb.New("data/starwars.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables if they don't exist.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so this runs on every startup.
// Statements are executed one at a time because the Postgres driver only accepts
// multiple statements per Exec in its simple protocol.
func (db *DB) migrate() error {
	for i, stmt := range db.dialect.schema() {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// rollback is deferred after every BeginTx. After a successful Commit it is a
// no-op (sql.ErrTxDone), so the error is ignored.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
