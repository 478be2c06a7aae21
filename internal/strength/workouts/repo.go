package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
)

// advisoryLockClassPRs is the classid half of the two-int advisory lock
// key used to serialize record evaluation per exercise.
const advisoryLockClassPRs = 7201

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the
// ledger reads run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &repoTx{tx: tx}, nil
}

func (r *Repo) LatestPR(ctx context.Context, exerciseID int) (*PersonalRecord, error) {
	return latestPR(ctx, r.db, exerciseID)
}

func (r *Repo) HighestRepsAt(ctx context.Context, exerciseID, weight int) (*RepsAtWeight, error) {
	return highestRepsAt(ctx, r.db, exerciseID, weight)
}

// The most recently appended ledger row counts as the current best.
func latestPR(ctx context.Context, q querier, exerciseID int) (_ *PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.latestPR")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var pr PersonalRecord
	err = q.QueryRow(ctx, `
		SELECT pr_id, heaviest_weight, one_rm, set_volume, exercise_id, workout_id
		FROM pr
		WHERE exercise_id = $1
		ORDER BY pr_id DESC
		LIMIT 1;`, exerciseID,
	).Scan(&pr.ID, &pr.HeaviestWeight, &pr.OneRM, &pr.SetVolume, &pr.ExerciseID, &pr.WorkoutID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest pr: %w", err)
	}
	return &pr, nil
}

func highestRepsAt(ctx context.Context, q querier, exerciseID, weight int) (_ *RepsAtWeight, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.highestRepsAt")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rec RepsAtWeight
	err = q.QueryRow(ctx, `
		SELECT exercise_id, weight, highest_reps, pr_id
		FROM highest_reps_per_weight
		WHERE exercise_id = $1 AND weight = $2;`, exerciseID, weight,
	).Scan(&rec.ExerciseID, &rec.Weight, &rec.HighestReps, &rec.PRID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query highest reps: %w", err)
	}
	return &rec, nil
}

type repoTx struct {
	tx pgx.Tx
}

func (t *repoTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *repoTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *repoTx) LatestPR(ctx context.Context, exerciseID int) (*PersonalRecord, error) {
	return latestPR(ctx, t.tx, exerciseID)
}

func (t *repoTx) HighestRepsAt(ctx context.Context, exerciseID, weight int) (*RepsAtWeight, error) {
	return highestRepsAt(ctx, t.tx, exerciseID, weight)
}

func (t *repoTx) RoutineExists(ctx context.Context, routineID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.routineExists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM routine WHERE routine_id = $1);`, routineID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query routine exists: %w", err)
	}
	return exists, nil
}

func (t *repoTx) WorkoutRoutineID(ctx context.Context, workoutID int) (_ *int, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.workoutRoutineID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var routineID *int
	err = t.tx.QueryRow(ctx,
		`SELECT routine_id FROM workout WHERE workout_id = $1;`, workoutID,
	).Scan(&routineID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query workout routine: %w", err)
	}
	return routineID, true, nil
}

func (t *repoTx) InsertWorkout(ctx context.Context, start time.Time, end *time.Time, routineID *int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.insertWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = t.tx.QueryRow(ctx, `
		INSERT INTO workout (start_time, end_time, routine_id)
		VALUES ($1, $2, $3)
		RETURNING workout_id;`, start, end, routineID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert workout: %w", err)
	}
	return id, nil
}

func (t *repoTx) InsertSet(ctx context.Context, workoutID, exerciseID int, s Set) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.insertSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var setID int
	err = t.tx.QueryRow(ctx, `
		INSERT INTO workout_set (weight, reps)
		VALUES ($1, $2)
		RETURNING set_id;`, s.Weight, s.Reps,
	).Scan(&setID)
	if err != nil {
		return 0, fmt.Errorf("insert set: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO workout_exercise_set (workout_id, exercise_id, set_id)
		VALUES ($1, $2, $3);`, workoutID, exerciseID, setID,
	)
	if err != nil {
		return 0, fmt.Errorf("link set to workout: %w", err)
	}
	return setID, nil
}

func (t *repoTx) LockExercise(ctx context.Context, exerciseID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.lockExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = t.tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock($1, $2);`, advisoryLockClassPRs, exerciseID,
	)
	if err != nil {
		return fmt.Errorf("lock exercise %d: %w", exerciseID, err)
	}
	return nil
}

func (t *repoTx) InsertPR(ctx context.Context, pr PersonalRecord) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.insertPR")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = t.tx.QueryRow(ctx, `
		INSERT INTO pr (heaviest_weight, one_rm, set_volume, exercise_id, workout_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING pr_id;`,
		pr.HeaviestWeight, pr.OneRM, pr.SetVolume, pr.ExerciseID, pr.WorkoutID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pr: %w", err)
	}
	return id, nil
}

// UpsertHighestReps writes the (exercise, weight) best-reps row. The
// WHERE clause on the conflict arm keeps the stored value monotone even
// if the engine-level check was skipped.
func (t *repoTx) UpsertHighestReps(ctx context.Context, rec RepsAtWeight) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.upsertHighestReps")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = t.tx.Exec(ctx, `
		INSERT INTO highest_reps_per_weight (exercise_id, weight, highest_reps, pr_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (exercise_id, weight) DO UPDATE
		SET highest_reps = EXCLUDED.highest_reps, pr_id = EXCLUDED.pr_id
		WHERE highest_reps_per_weight.highest_reps < EXCLUDED.highest_reps;`,
		rec.ExerciseID, rec.Weight, rec.HighestReps, rec.PRID,
	)
	if err != nil {
		return fmt.Errorf("upsert highest reps: %w", err)
	}
	return nil
}

func (r *Repo) ListWorkouts(ctx context.Context) (_ []WorkoutSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.listWorkouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT w.workout_id, w.start_time, r.routine_name
		FROM workout w
		LEFT JOIN routine r ON w.routine_id = r.routine_id
		ORDER BY w.start_time DESC;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	workouts := []WorkoutSummary{}
	for rows.Next() {
		var w WorkoutSummary
		if err = rows.Scan(&w.WorkoutID, &w.StartTime, &w.RoutineName); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *Repo) GetWorkout(ctx context.Context, workoutID int) (_ *WorkoutDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.getWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	detail := WorkoutDetail{WorkoutID: workoutID}
	err = r.db.QueryRow(ctx, `
		SELECT w.start_time, w.routine_id, r.routine_name
		FROM workout w
		LEFT JOIN routine r ON w.routine_id = r.routine_id
		WHERE w.workout_id = $1;`, workoutID,
	).Scan(&detail.StartTime, &detail.RoutineID, &detail.RoutineName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query workout: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.exercise_id, e.exercise_name, s.weight, s.reps
		FROM workout_exercise_set wes
		JOIN exercise_list e ON wes.exercise_id = e.exercise_id
		JOIN workout_set s ON wes.set_id = s.set_id
		WHERE wes.workout_id = $1
		ORDER BY e.exercise_id, s.set_id;`, workoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workout sets: %w", err)
	}
	defer rows.Close()

	detail.Exercises = []WorkoutExerciseDetail{}
	for rows.Next() {
		var (
			exID   int
			exName string
			s      Set
		)
		if err = rows.Scan(&exID, &exName, &s.Weight, &s.Reps); err != nil {
			return nil, fmt.Errorf("scan workout set: %w", err)
		}
		n := len(detail.Exercises)
		if n == 0 || detail.Exercises[n-1].ExerciseID != exID {
			detail.Exercises = append(detail.Exercises, WorkoutExerciseDetail{
				ExerciseID:   exID,
				ExerciseName: exName,
				Sets:         map[int]Set{},
			})
			n++
		}
		ex := &detail.Exercises[n-1]
		ex.Sets[len(ex.Sets)+1] = s
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Template returns the routine's exercises with the prescribed number
// of sets, all zeroed, ready to be filled in during a session.
func (r *Repo) Template(ctx context.Context, routineID int) (_ []TemplateExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.template")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM routine WHERE routine_id = $1);`, routineID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query routine exists: %w", err)
	}
	if !exists {
		return nil, ErrRoutineNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.exercise_id, e.exercise_name, res.number_of_sets
		FROM routine_exercise_set res
		JOIN exercise_list e ON res.exercise_id = e.exercise_id
		WHERE res.routine_id = $1
		ORDER BY e.exercise_id;`, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("query routine exercises: %w", err)
	}
	defer rows.Close()

	template := []TemplateExercise{}
	for rows.Next() {
		var (
			ex      TemplateExercise
			numSets int
		)
		if err = rows.Scan(&ex.ExerciseID, &ex.ExerciseName, &numSets); err != nil {
			return nil, fmt.Errorf("scan routine exercise: %w", err)
		}
		ex.Sets = map[int]Set{}
		for i := 1; i <= numSets; i++ {
			ex.Sets[i] = Set{}
		}
		template = append(template, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return template, nil
}

func (r *Repo) VolumeOverTime(ctx context.Context, exerciseID int, from, to *time.Time) (_ []StatPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.volumeOverTime")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return queryStatPoints(ctx, r.db, `
		SELECT w.start_time, CAST(SUM(s.weight * s.reps) AS DOUBLE PRECISION)
		FROM workout w
		JOIN workout_exercise_set wes ON w.workout_id = wes.workout_id
		JOIN workout_set s ON wes.set_id = s.set_id
		WHERE wes.exercise_id = $1
			AND ($2::timestamp IS NULL OR w.start_time >= $2)
			AND ($3::timestamp IS NULL OR w.start_time <= $3)
		GROUP BY w.start_time
		ORDER BY w.start_time;`, exerciseID, from, to)
}

func (r *Repo) MaxWeightOverTime(ctx context.Context, exerciseID int, from, to *time.Time) (_ []StatPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.maxWeightOverTime")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return queryStatPoints(ctx, r.db, `
		SELECT w.start_time, CAST(MAX(s.weight) AS DOUBLE PRECISION)
		FROM workout w
		JOIN workout_exercise_set wes ON w.workout_id = wes.workout_id
		JOIN workout_set s ON wes.set_id = s.set_id
		WHERE wes.exercise_id = $1
			AND ($2::timestamp IS NULL OR w.start_time >= $2)
			AND ($3::timestamp IS NULL OR w.start_time <= $3)
		GROUP BY w.start_time
		ORDER BY w.start_time;`, exerciseID, from, to)
}

func queryStatPoints(ctx context.Context, q querier, sql string, args ...any) ([]StatPoint, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	points := []StatPoint{}
	for rows.Next() {
		var p StatPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan stat point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// PRHistory returns the full ledger for an exercise, best records
// first. Ties on estimated 1RM fall back to weight, then volume.
func (r *Repo) PRHistory(ctx context.Context, exerciseID int) (_ []PRHistoryEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.prHistory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT w.start_time, p.heaviest_weight, p.one_rm, p.set_volume
		FROM pr p
		JOIN workout w ON p.workout_id = w.workout_id
		WHERE p.exercise_id = $1
		ORDER BY p.one_rm DESC, p.heaviest_weight DESC, p.set_volume DESC;`, exerciseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pr history: %w", err)
	}
	defer rows.Close()

	history := []PRHistoryEntry{}
	for rows.Next() {
		var e PRHistoryEntry
		if err = rows.Scan(&e.WorkoutDate, &e.HeaviestWeight, &e.OneRM, &e.SetVolume); err != nil {
			return nil, fmt.Errorf("scan pr history: %w", err)
		}
		history = append(history, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
