package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/2beens/gymbook/internal/db"
	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"go.opentelemetry.io/otel/attribute"
)

var ErrUsernameExists = errors.New("username already exists")

type Repo struct {
	store *db.Store
}

func NewRepo(store *db.Store) *Repo {
	return &Repo{
		store: store,
	}
}

func (r *Repo) List(ctx context.Context) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	users := []User{}
	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT id, username FROM users ORDER BY username`)
		if err != nil {
			return fmt.Errorf("users [query]: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var user User
			if err := rows.Scan(&user.ID, &user.Username); err != nil {
				return fmt.Errorf("users [rows scan]: %w", err)
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repo) Add(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int64
	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
		if err != nil {
			if pkg.IsUniqueViolationError(err) {
				return ErrUsernameExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", id))

	return &User{
		ID:       id,
		Username: username,
	}, nil
}

// Delete removes the user; muscle groups and exercises go with it (cascade).
// Returns the image paths of the removed exercises that no other user's exercise
// references, so their files can be cleaned up.
// Deleting a missing user is not an error.
func (r *Repo) Delete(ctx context.Context, id int64) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var imagePaths []string
	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`
				SELECT DISTINCT e.image_path
				FROM exercises e
				JOIN muscle_groups mg ON mg.id = e.muscle_group_id
				WHERE mg.user_id = ? AND e.image_path IS NOT NULL
				AND NOT EXISTS (
					SELECT 1
					FROM exercises o
					JOIN muscle_groups omg ON omg.id = o.muscle_group_id
					WHERE o.image_path = e.image_path AND omg.user_id != ?
				)
			`,
			id, id,
		)
		if err != nil {
			return fmt.Errorf("user exercise images [query]: %w", err)
		}
		imagePaths, err = scanStrings(rows)
		if err != nil {
			return fmt.Errorf("user exercise images: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return imagePaths, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var vals []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, rows.Err()
}
