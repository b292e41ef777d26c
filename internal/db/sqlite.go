// Package db owns the single-file SQLite store: schema, connection acquisition
// and referential integrity (foreign keys with cascading deletes).
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

var ErrStoreClosed = errors.New("store closed")

// Store wraps the database file. Every operation acquires its own connection
// through Conn and releases it when done.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at path.
// Foreign key enforcement is a per-connection setting in SQLite, so it is set
// through the DSN and applies to every connection the driver opens.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("db path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := pkg.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Debugf("db: opened [%s]", path)

	return &Store{
		db:   sqlDB,
		path: path,
	}, nil
}

// Write transactions start as BEGIN IMMEDIATE, so two of them never both
// hold a read lock while waiting to upgrade; the later one waits on
// busy_timeout instead of failing with SQLITE_BUSY.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// Conn acquires a connection for a single operation. Callers must Close it.
func (s *Store) Conn(ctx context.Context) (*sql.Conn, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// DB exposes the handle for pool stats collection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithConn acquires a connection, runs fn with it and releases it.
func (s *Store) WithConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warnf("db: release connection: %s", err)
		}
	}()
	return fn(conn)
}

// WithTx runs fn inside a transaction on a freshly acquired connection.
// The transaction is committed when fn returns nil, rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "db.tx")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.WithConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() {
			// no-op after a successful commit
			_ = tx.Rollback()
		}()

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
