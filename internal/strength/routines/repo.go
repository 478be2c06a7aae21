package routines

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// List returns all routines, oldest first. With includeLastPerformed
// set, each routine carries the date of the latest workout saved
// against it.
func (r *Repo) List(ctx context.Context, includeLastPerformed bool) (_ []RoutineInfo, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.repo.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query := `
		SELECT r.routine_id, r.routine_name, r.description, r.created_at, NULL::date
		FROM routine r
		ORDER BY r.created_at ASC;`
	if includeLastPerformed {
		query = `
		SELECT r.routine_id, r.routine_name, r.description, r.created_at,
			(SELECT MAX(w.start_time::date) FROM workout w WHERE w.routine_id = r.routine_id)
		FROM routine r
		ORDER BY r.created_at ASC;`
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query routines: %w", err)
	}
	defer rows.Close()

	routines := []RoutineInfo{}
	for rows.Next() {
		var info RoutineInfo
		if err = rows.Scan(
			&info.RoutineID, &info.Name, &info.Description, &info.CreatedAt, &info.LastPerformed,
		); err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

// IDByName resolves an exact routine name to an id.
func (r *Repo) IDByName(ctx context.Context, name string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.repo.idByName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = r.db.QueryRow(ctx,
		`SELECT routine_id FROM routine WHERE routine_name = $1;`, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrRoutineNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("query routine id: %w", err)
	}
	return id, nil
}

// Create inserts the routine and its exercise prescriptions in one
// transaction.
func (r *Repo) Create(ctx context.Context, input RoutineInput) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.repo.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				log.Errorf("create routine: rollback failed: %s", rollbackErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	var routineID int
	err = tx.QueryRow(ctx, `
		INSERT INTO routine (routine_name, description)
		VALUES ($1, $2)
		RETURNING routine_id;`, input.Name, input.Description,
	).Scan(&routineID)
	if err != nil {
		return 0, fmt.Errorf("insert routine: %w", err)
	}

	if err = insertRoutineExercises(ctx, tx, routineID, input.Exercises); err != nil {
		return 0, err
	}
	return routineID, nil
}

// Update replaces the routine's name, description and exercise
// prescriptions in one transaction.
func (r *Repo) Update(ctx context.Context, routineID int, input RoutineInput) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.repo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				log.Errorf("update routine: rollback failed: %s", rollbackErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE routine SET routine_name = $1, description = $2
		WHERE routine_id = $3;`, input.Name, input.Description, routineID,
	)
	if err != nil {
		return fmt.Errorf("update routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrRoutineNotFound, routineID)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM routine_exercise_set WHERE routine_id = $1;`, routineID,
	)
	if err != nil {
		return fmt.Errorf("clear routine exercises: %w", err)
	}

	return insertRoutineExercises(ctx, tx, routineID, input.Exercises)
}

// Delete removes the routine and its exercise prescriptions in one
// transaction.
func (r *Repo) Delete(ctx context.Context, routineID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.repo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				log.Errorf("delete routine: rollback failed: %s", rollbackErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	_, err = tx.Exec(ctx,
		`DELETE FROM routine_exercise_set WHERE routine_id = $1;`, routineID,
	)
	if err != nil {
		return fmt.Errorf("delete routine exercises: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM routine WHERE routine_id = $1;`, routineID,
	)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrRoutineNotFound, routineID)
	}
	return nil
}

func insertRoutineExercises(ctx context.Context, tx pgx.Tx, routineID int, exercises []RoutineExercise) error {
	for _, ex := range exercises {
		_, err := tx.Exec(ctx, `
			INSERT INTO routine_exercise_set (routine_id, exercise_id, number_of_sets)
			VALUES ($1, $2, $3);`, routineID, ex.ExerciseID, ex.Sets,
		)
		if err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return fmt.Errorf("%w: id %d", ErrExerciseNotFound, ex.ExerciseID)
			}
			return fmt.Errorf("insert routine exercise %d: %w", ex.ExerciseID, err)
		}
	}
	return nil
}
