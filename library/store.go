package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store owns the relational handle shared by the registries and the ledger.
// All access goes through parameterized statements; queries are written with
// `?` placeholders and rebound per driver.
type Store struct {
	db     *sqlx.DB
	driver string
	log    *zap.SugaredLogger
}

// OpenStore connects to the configured backend, applies schema migrations,
// and returns the shared handle. A connection failure here is fatal to the
// caller; everything after startup is surfaced as a recoverable error.
func OpenStore(cfg Config, log *zap.SugaredLogger) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DSN)
	case "sqlite3":
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create db dir: %w", mkErr)
			}
		}
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", cfg.DSN)
		db, err = sqlx.Connect("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	s := &Store{db: db, driver: cfg.Driver, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

// fail logs the raw driver error and returns a sanitized one for the caller.
func (s *Store) fail(op string, err error) error {
	s.log.Errorw("store operation failed", "op", op, "err", err)
	return fmt.Errorf("%w: %s", ErrStore, op)
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        year INTEGER NOT NULL,
        available BOOLEAN NOT NULL DEFAULT 1
    );`,
	`CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        role TEXT NOT NULL,
        credential_hash TEXT NOT NULL,
        salt TEXT NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS loans (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id),
        book_id INTEGER NOT NULL REFERENCES books(id),
        loan_date DATE NOT NULL,
        return_date DATE
    );`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
        id BIGSERIAL PRIMARY KEY,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        year INTEGER NOT NULL,
        available BOOLEAN NOT NULL DEFAULT TRUE
    );`,
	`CREATE TABLE IF NOT EXISTS users (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        role TEXT NOT NULL,
        credential_hash TEXT NOT NULL,
        salt TEXT NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS loans (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        book_id BIGINT NOT NULL REFERENCES books(id),
        loan_date DATE NOT NULL,
        return_date DATE
    );`,
}

func (s *Store) migrate() error {
	if s.driver == "sqlite3" {
		// WAL improves write concurrency.
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	var current int
	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := sqliteSchema
	if s.driver == "postgres" {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(tx.Rebind(
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`), fmt.Sprint(schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Insert helper
// ---------------------------------------------------------------------------

// insertID runs an INSERT and yields the generated id, papering over the
// driver split: lib/pq does not support LastInsertId, so postgres goes
// through RETURNING instead.
func (s *Store) insertID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := sqlx.GetContext(ctx, q, &id, q.Rebind(query+" RETURNING id"), args...)
		return id, err
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
