// Package sqlstore implements store.Store on SQLite through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/store/sqlstore/migrations"
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

// Store is the SQLite implementation of store.Store.
type Store struct {
	db *sqlx.DB
	q  dbtx
	tx bool
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path, enables foreign keys and WAL,
// and applies pending migrations. path ":memory:" yields a private in-memory
// database backed by a single connection.
func Open(path string) (*Store, error) {
	memory := path == ":memory:"

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if memory {
		// every new connection to :memory: is a fresh, empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrations.MigrateUp(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

// DB exposes the underlying handle for tooling such as the migrate command.
func (s *Store) DB() *sql.DB { return s.db.DB }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, tx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// translate maps driver errors onto store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch code := se.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"):
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
	}
	return err
}

// in expands query with sqlx.In; used for farm id lists.
func in(query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expanding IN clause: %w", err)
	}
	return q, a, nil
}

// columns renders "alias.col AS "prefix.col"" for each column so sqlx can scan
// into nested structs.
func columns(alias, prefix string, cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if prefix == "" {
			parts[i] = alias + "." + c
			continue
		}
		parts[i] = fmt.Sprintf(`%s.%s AS "%s.%s"`, alias, c, prefix, c)
	}
	return strings.Join(parts, ", ")
}

// orderBy renders an ORDER BY clause for sortBy when allowed, else fallback.
// alias qualifies the column for joined queries.
func orderBy(alias string, allowed map[string]bool, sortBy, fallback string, desc bool) string {
	col := fallback
	if allowed[sortBy] {
		col = sortBy
	}
	if alias != "" {
		col = alias + "." + col
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}

func page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
		if offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", offset)
		}
	}
	return b.String()
}

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
