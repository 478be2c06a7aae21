package workouts

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

// SaveResult reports the outcome of a committed workout save.
type SaveResult struct {
	WorkoutID  int
	NewRecords int
}

// Service saves finished workout sessions. A save is one transaction:
// the workout row, every set, and every record-ledger update land
// together or not at all.
type Service struct {
	store     Store
	evaluator *Evaluator
	now       func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:     store,
		evaluator: NewEvaluator(),
		now:       time.Now,
	}
}

// Finish persists a new workout session.
func (s *Service) Finish(ctx context.Context, data WorkoutData) (_ SaveResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.finish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.save(ctx, data, nil)
}

// Modify re-records the sets of an existing workout. The old sets stay
// linked to the workout alongside the new ones; every new set still
// runs through record evaluation.
func (s *Service) Modify(ctx context.Context, workoutID int, data WorkoutData) (_ SaveResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.modify")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.save(ctx, data, &workoutID)
}

// ValidateSet is the dry-run record check used mid-session, before
// anything is persisted.
func (s *Service) ValidateSet(ctx context.Context, exerciseID int, set Set) (_ Improvements, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.validateSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.evaluator.Check(ctx, s.store, exerciseID, set)
}

func (s *Service) save(ctx context.Context, data WorkoutData, existingID *int) (res SaveResult, err error) {
	if len(data.Exercises) == 0 {
		return SaveResult{}, ErrNoExercises
	}
	// reject bad input before touching storage
	for _, ex := range data.Exercises {
		for _, set := range ex.Sets {
			if err := validateSet(set); err != nil {
				return SaveResult{}, err
			}
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				log.Errorf("save workout: rollback failed: %s", rollbackErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	var workoutID int
	if existingID != nil {
		workoutID = *existingID
		storedRoutineID, exists, err := tx.WorkoutRoutineID(ctx, workoutID)
		if err != nil {
			return SaveResult{}, err
		}
		if !exists {
			return SaveResult{}, ErrWorkoutNotFound
		}
		if data.RoutineID != nil && !sameRoutine(data.RoutineID, storedRoutineID) {
			if err := s.checkRoutine(ctx, tx, *data.RoutineID); err != nil {
				return SaveResult{}, err
			}
		}
	} else {
		if data.RoutineID != nil {
			if err := s.checkRoutine(ctx, tx, *data.RoutineID); err != nil {
				return SaveResult{}, err
			}
		}
		start := s.now()
		if data.StartTime != nil {
			start = *data.StartTime
		}
		workoutID, err = tx.InsertWorkout(ctx, start, data.EndTime, data.RoutineID)
		if err != nil {
			return SaveResult{}, err
		}
	}

	res.WorkoutID = workoutID
	for _, ex := range data.Exercises {
		for _, setNumber := range sortedSetNumbers(ex.Sets) {
			set := ex.Sets[setNumber]
			if _, err = tx.InsertSet(ctx, workoutID, ex.ExerciseID, set); err != nil {
				if pkg.IsForeignKeyViolationError(err) {
					err = fmt.Errorf("%w: id %d", ErrExerciseNotFound, ex.ExerciseID)
				}
				return SaveResult{}, err
			}
			imps, err := s.evaluator.Commit(ctx, tx, ex.ExerciseID, workoutID, set)
			if err != nil {
				return SaveResult{}, err
			}
			if appendsLedgerRow(imps) {
				res.NewRecords++
			}
		}
	}

	log.Tracef("workout %d saved, %d new records", workoutID, res.NewRecords)
	return res, nil
}

func (s *Service) checkRoutine(ctx context.Context, tx Tx, routineID int) error {
	exists, err := tx.RoutineExists(ctx, routineID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: id %d", ErrRoutineNotFound, routineID)
	}
	return nil
}

func sameRoutine(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortedSetNumbers(sets map[int]Set) []int {
	numbers := make([]int, 0, len(sets))
	for n := range sets {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func appendsLedgerRow(imps Improvements) bool {
	for _, m := range []Metric{MetricHeaviestWeight, MetricOneRM, MetricSetVolume} {
		if _, ok := imps[m]; ok {
			return true
		}
	}
	return false
}
