package sqldb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func (d Dialect) String() string { return string(d) }

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// ParseTarget decides which database a connection string points at.
//
//	""                          → SQLite file at dbPath
//	"postgres://..."            → Postgres (the legacy scheme is accepted as-is)
//	"postgresql://..."          → Postgres
//	"sqlite:///data/app.db"     → SQLite file "data/app.db"
//	"sqlite:////tmp/app.db"     → SQLite file "/tmp/app.db"
//	"file:app.db?mode=rwc"      → SQLite URI, passed through
func ParseTarget(databaseURL, dbPath string) (Dialect, string, error) {
	databaseURL = strings.TrimSpace(databaseURL)

	switch {
	case databaseURL == "":
		if dbPath == "" {
			return "", "", errors.New("sqldb: neither a database URL nor a SQLite path was given")
		}
		return DialectSQLite, dbPath, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite:///"):
		return DialectSQLite, strings.TrimPrefix(databaseURL, "sqlite:///"), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(databaseURL, "sqlite://"), nil
	case strings.HasPrefix(databaseURL, "file:"):
		return DialectSQLite, databaseURL, nil
	}

	scheme, _, _ := strings.Cut(databaseURL, ":")
	return "", "", fmt.Errorf("sqldb: unsupported database URL scheme %q", scheme)
}

// rebind rewrites `?` placeholders as `$1, $2, ...` for Postgres.
// None of the queries in this package contain a literal question mark.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// schema returns the CREATE statements for the dialect.
//
// The tables differ only in how ids are generated and in column types;
// the constraints are the same in both:
//   - characters.planet_id → planets.id (nullable)
//   - favorites.user_id    → users.id
//   - favorite_unique      UNIQUE (user_id, name), the authoritative guard
//     against duplicate favorites
func (d Dialect) schema() []string {
	if d == DialectPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id        BIGSERIAL PRIMARY KEY,
				email     VARCHAR(120) NOT NULL UNIQUE,
				password  VARCHAR(80) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE TABLE IF NOT EXISTS planets (
				id              BIGSERIAL PRIMARY KEY,
				name            TEXT NOT NULL,
				diameter        BIGINT,
				rotation_period BIGINT,
				population      TEXT,
				terrain         TEXT,
				surface_water   BIGINT,
				climate         TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS characters (
				id         BIGSERIAL PRIMARY KEY,
				name       TEXT NOT NULL,
				birth_year TEXT,
				height     BIGINT,
				mass       BIGINT,
				gender     TEXT,
				planet_id  BIGINT REFERENCES planets(id)
			)`,
			`CREATE TABLE IF NOT EXISTS favorites (
				id        BIGSERIAL PRIMARY KEY,
				name      TEXT NOT NULL,
				user_id   BIGINT NOT NULL REFERENCES users(id),
				kind      TEXT NOT NULL,
				entity_id BIGINT NOT NULL,
				CONSTRAINT favorite_unique UNIQUE (user_id, name)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_favorites_entity ON favorites(user_id, kind, entity_id)`,
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			email     TEXT NOT NULL UNIQUE,
			password  TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS planets (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL,
			diameter        INTEGER,
			rotation_period INTEGER,
			population      TEXT,
			terrain         TEXT,
			surface_water   INTEGER,
			climate         TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS characters (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			birth_year TEXT,
			height     INTEGER,
			mass       INTEGER,
			gender     TEXT,
			planet_id  INTEGER REFERENCES planets(id)
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			name      TEXT NOT NULL,
			user_id   INTEGER NOT NULL REFERENCES users(id),
			kind      TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			CONSTRAINT favorite_unique UNIQUE (user_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_entity ON favorites(user_id, kind, entity_id)`,
	}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure from either driver.
func isForeignKeyViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}
