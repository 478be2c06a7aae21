package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Add inserts a new catalog entry. Names clash case-insensitively, so
// "bench press" conflicts with "Bench Press".
func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.repo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var existingID int
	err = r.db.QueryRow(ctx,
		`SELECT exercise_id FROM exercise_list WHERE exercise_name ILIKE $1;`, exercise.Name,
	).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExerciseExists, exercise.Name)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check exercise name: %w", err)
	}

	added := exercise
	err = r.db.QueryRow(ctx, `
		INSERT INTO exercise_list (exercise_name, muscles_trained, exercise_type)
		VALUES ($1, $2, $3)
		RETURNING exercise_id;`,
		exercise.Name, exercise.MusclesTrained, exercise.Type,
	).Scan(&added.ID)
	if err != nil {
		// the ILIKE check races with concurrent inserts, the unique
		// index has the final say
		if pkg.IsUniqueViolationError(err) {
			return nil, fmt.Errorf("%w: %s", ErrExerciseExists, exercise.Name)
		}
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	return &added, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.repo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM exercise_list WHERE exercise_id = $1;`, id,
	)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrExerciseNotFound, id)
	}
	return nil
}

// IDByName resolves an exact (case-insensitive) name to an id.
func (r *Repo) IDByName(ctx context.Context, name string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.repo.idByName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = r.db.QueryRow(ctx,
		`SELECT exercise_id FROM exercise_list WHERE exercise_name ILIKE $1;`, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrExerciseNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("query exercise id: %w", err)
	}
	return id, nil
}

// Search returns up to 20 catalog entries whose name contains the
// given fragment, alphabetically.
func (r *Repo) Search(ctx context.Context, partialName string) (_ []SearchResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.repo.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT exercise_id, exercise_name, muscles_trained
		FROM exercise_list
		WHERE exercise_name ILIKE $1
		ORDER BY exercise_name
		LIMIT 20;`, "%"+partialName+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("search exercises: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var res SearchResult
		if err = rows.Scan(&res.ID, &res.Name, &res.MusclesTrained); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
