package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/2beens/gymbook/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS muscle_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		muscle_group_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		weight REAL NOT NULL,
		sets INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		image_path TEXT,
		FOREIGN KEY (muscle_group_id) REFERENCES muscle_groups (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_muscle_groups_user_id ON muscle_groups (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_exercises_muscle_group_id ON exercises (muscle_group_id)`,
}

// InitSchema creates the tables if absent. Safe to call on every start.
func (s *Store) InitSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "db.init_schema")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec schema statement: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	log.Debugf("db: schema initialized [%s]", s.path)
	return nil
}
