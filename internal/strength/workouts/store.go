package workouts

import (
	"context"
	"time"
)

// RecordReader is the read side of the PR ledger. Both Store and Tx
// satisfy it, so the evaluation engine can run against a plain pool
// (dry-run validation) or inside a transaction (committed saves).
type RecordReader interface {
	// LatestPR returns the most recently appended ledger row for the
	// exercise, or nil when the ledger is empty.
	LatestPR(ctx context.Context, exerciseID int) (*PersonalRecord, error)
	// HighestRepsAt returns the best-reps row for the exercise at the
	// given weight, or nil when none exists.
	HighestRepsAt(ctx context.Context, exerciseID, weight int) (*RepsAtWeight, error)
}

// Store is the persistence seam of the workout engine.
type Store interface {
	RecordReader
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one workout-save transaction. Every write a save performs goes
// through a single Tx, so a failure anywhere rolls back the whole
// workout.
type Tx interface {
	RecordReader

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	RoutineExists(ctx context.Context, routineID int) (bool, error)
	// WorkoutRoutineID returns the routine the workout was saved
	// against (nil for freestyle workouts) and whether it exists.
	WorkoutRoutineID(ctx context.Context, workoutID int) (routineID *int, exists bool, err error)
	InsertWorkout(ctx context.Context, start time.Time, end *time.Time, routineID *int) (int, error)
	InsertSet(ctx context.Context, workoutID, exerciseID int, s Set) (int, error)

	// LockExercise serializes concurrent record evaluation for one
	// exercise for the remainder of the transaction.
	LockExercise(ctx context.Context, exerciseID int) error
	InsertPR(ctx context.Context, pr PersonalRecord) (int, error)
	UpsertHighestReps(ctx context.Context, rec RepsAtWeight) error
}
