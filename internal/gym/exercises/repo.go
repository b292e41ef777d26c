package exercises

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

var (
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrMuscleGroupNotFound = errors.New("muscle group not found")
)

const exerciseColumns = `id, muscle_group_id, name, weight, sets, reps, image_path`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	store *db.Store
}

func NewRepo(store *db.Store) *Repo {
	return &Repo{
		store: store,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*Exercise, error) {
	var (
		ex        Exercise
		imagePath sql.NullString
	)
	if err := row.Scan(
		&ex.ID,
		&ex.MuscleGroupID,
		&ex.Name,
		&ex.Weight,
		&ex.Sets,
		&ex.Reps,
		&imagePath,
	); err != nil {
		return nil, err
	}
	if imagePath.Valid {
		ex.ImagePath = &imagePath.String
	}
	return &ex, nil
}

func getExercise(ctx context.Context, q querier, id int64) (*Exercise, error) {
	ex, err := scanExercise(q.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return ex, nil
}

// imageUnreferenced reports whether no exercise points at the image anymore.
// Uploads with the same sanitized name share one file.
func imageUnreferenced(ctx context.Context, q querier, imagePath string) (bool, error) {
	var refs int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercises WHERE image_path = ?`,
		imagePath,
	).Scan(&refs); err != nil {
		return false, fmt.Errorf("count image references: %w", err)
	}
	return refs == 0, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// List returns the group's exercises ordered by name.
func (r *Repo) List(ctx context.Context, groupID int64) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("group.id", groupID))

	exercises := []Exercise{}
	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT `+exerciseColumns+` FROM exercises WHERE muscle_group_id = ? ORDER BY name`,
			groupID,
		)
		if err != nil {
			return fmt.Errorf("exercises [query]: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			ex, err := scanExercise(rows)
			if err != nil {
				return fmt.Errorf("exercises [rows scan]: %w", err)
			}
			exercises = append(exercises, *ex)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return exercises, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var ex *Exercise
	err = r.store.WithConn(ctx, func(conn *sql.Conn) (err error) {
		ex, err = getExercise(ctx, conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ex, nil
}

func (r *Repo) Add(ctx context.Context, ex Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("group.id", ex.MuscleGroupID))

	err = r.store.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`
				INSERT INTO exercises (muscle_group_id, name, weight, sets, reps, image_path)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
			ex.MuscleGroupID, ex.Name, ex.Weight, ex.Sets, ex.Reps, nullString(ex.ImagePath),
		)
		if err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return ErrMuscleGroupNotFound
			}
			return fmt.Errorf("insert exercise: %w", err)
		}
		ex.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ex, nil
}

// ImageInUse reports whether any exercise references the image.
func (r *Repo) ImageInUse(ctx context.Context, imagePath string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.image_in_use")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var unreferenced bool
	err = r.store.WithConn(ctx, func(conn *sql.Conn) (err error) {
		unreferenced, err = imageUnreferenced(ctx, conn, imagePath)
		return err
	})
	if err != nil {
		return false, err
	}

	return !unreferenced, nil
}

// Update overwrites name, weight, sets and reps; the image path only when updateImage is set.
// It returns the stored exercise, and the previous image path when the update left it
// referenced by no exercise.
func (r *Repo) Update(ctx context.Context, ex Exercise, updateImage bool) (_ *Exercise, orphanedImage *string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("id", ex.ID),
		attribute.Bool("update.image", updateImage),
	)

	var updated *Exercise
	err = r.store.WithTx(ctx, func(tx *sql.Tx) (err error) {
		var prevImage sql.NullString
		if err := tx.QueryRowContext(ctx,
			`SELECT image_path FROM exercises WHERE id = ?`,
			ex.ID,
		).Scan(&prevImage); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrExerciseNotFound
			}
			return fmt.Errorf("get exercise image: %w", err)
		}

		if updateImage {
			_, err = tx.ExecContext(ctx,
				`UPDATE exercises SET name = ?, weight = ?, sets = ?, reps = ?, image_path = ? WHERE id = ?`,
				ex.Name, ex.Weight, ex.Sets, ex.Reps, nullString(ex.ImagePath), ex.ID,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE exercises SET name = ?, weight = ?, sets = ?, reps = ? WHERE id = ?`,
				ex.Name, ex.Weight, ex.Sets, ex.Reps, ex.ID,
			)
		}
		if err != nil {
			return fmt.Errorf("update exercise: %w", err)
		}

		updated, err = getExercise(ctx, tx, ex.ID)
		if err != nil {
			return err
		}

		if !updateImage || !prevImage.Valid {
			return nil
		}
		if updated.ImagePath != nil && *updated.ImagePath == prevImage.String {
			return nil
		}
		unreferenced, err := imageUnreferenced(ctx, tx, prevImage.String)
		if err != nil {
			return err
		}
		if unreferenced {
			orphanedImage = &prevImage.String
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, orphanedImage, nil
}

// Delete removes the exercise and returns its image path when no other exercise uses it.
// Deleting a missing exercise is not an error.
func (r *Repo) Delete(ctx context.Context, id int64) (orphanedImage *string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		var imagePath sql.NullString
		if err := tx.QueryRowContext(ctx,
			`SELECT image_path FROM exercises WHERE id = ?`,
			id,
		).Scan(&imagePath); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("get exercise image: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete exercise: %w", err)
		}

		if !imagePath.Valid {
			return nil
		}
		unreferenced, err := imageUnreferenced(ctx, tx, imagePath.String)
		if err != nil {
			return err
		}
		if unreferenced {
			orphanedImage = &imagePath.String
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orphanedImage, nil
}
