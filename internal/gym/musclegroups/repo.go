package musclegroups

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

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	store *db.Store
}

func NewRepo(store *db.Store) *Repo {
	return &Repo{
		store: store,
	}
}

// List returns the user's muscle groups ordered by name. An unknown user has none.
func (r *Repo) List(ctx context.Context, userID int64) (_ []MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	groups := []MuscleGroup{}
	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, user_id, name FROM muscle_groups WHERE user_id = ? ORDER BY name`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("muscle groups [query]: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var group MuscleGroup
			if err := rows.Scan(&group.ID, &group.UserID, &group.Name); err != nil {
				return fmt.Errorf("muscle groups [rows scan]: %w", err)
			}
			groups = append(groups, group)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *Repo) Add(ctx context.Context, userID int64, name string) (_ *MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var id int64
	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO muscle_groups (user_id, name) VALUES (?, ?)`,
			userID, name,
		)
		if err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("insert muscle group: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return &MuscleGroup{
		ID:     id,
		UserID: userID,
		Name:   name,
	}, nil
}

// Delete removes the group together with its exercises, and returns the image
// paths only the removed exercises used. Deleting a missing group is not an error.
func (r *Repo) Delete(ctx context.Context, id int64) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.delete")
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
				WHERE e.muscle_group_id = ? AND e.image_path IS NOT NULL
				AND NOT EXISTS (
					SELECT 1 FROM exercises o
					WHERE o.image_path = e.image_path AND o.muscle_group_id != e.muscle_group_id
				)
			`,
			id,
		)
		if err != nil {
			return fmt.Errorf("group exercise images [query]: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var imagePath string
			if err := rows.Scan(&imagePath); err != nil {
				return fmt.Errorf("group exercise images [rows scan]: %w", err)
			}
			imagePaths = append(imagePaths, imagePath)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("group exercise images: %w", err)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM muscle_groups WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete muscle group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return imagePaths, nil
}
