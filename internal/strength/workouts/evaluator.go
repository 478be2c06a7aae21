package workouts

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	minReps = 1
	maxReps = 36
)

// OneRepMax estimates the one-rep max for a set using the Brzycki
// formula, weight * 36 / (37 - reps). Defined for reps in [1, 36];
// at 36 reps the estimate equals 36x the weight.
func OneRepMax(weight, reps int) float64 {
	return float64(weight) * 36 / float64(37-reps)
}

// Evaluator decides whether a set is a new personal record and, on the
// commit path, appends the ledger rows. All comparisons are strict:
// matching a best changes nothing.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

func validateSet(s Set) error {
	if s.Reps < minReps || s.Reps > maxReps {
		return ErrRepsOutOfRange
	}
	if s.Weight < 0 {
		return ErrInvalidWeight
	}
	return nil
}

// Check is the dry-run path: it reports which metrics the set would
// improve without writing anything. A missing ledger row counts as an
// improvement on every metric.
func (e *Evaluator) Check(ctx context.Context, r RecordReader, exerciseID int, s Set) (Improvements, error) {
	if err := validateSet(s); err != nil {
		return nil, err
	}

	imps := Improvements{}

	latest, err := r.LatestPR(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	oneRM := OneRepMax(s.Weight, s.Reps)
	volume := s.Weight * s.Reps
	if latest == nil || s.Weight > latest.HeaviestWeight {
		imps[MetricHeaviestWeight] = float64(s.Weight)
	}
	if latest == nil || oneRM > latest.OneRM {
		imps[MetricOneRM] = oneRM
	}
	if latest == nil || volume > latest.SetVolume {
		imps[MetricSetVolume] = float64(volume)
	}

	best, err := r.HighestRepsAt(ctx, exerciseID, s.Weight)
	if err != nil {
		return nil, err
	}
	if best == nil || s.Reps > best.HighestReps {
		imps[MetricHighestReps] = float64(s.Reps)
	}

	return imps, nil
}

// Commit evaluates the set inside the save transaction and persists the
// outcome: one appended pr row when any of the three ledger metrics
// improved, and an upserted best-reps row when the rep count at this
// weight improved. The per-exercise lock must be taken before the first
// ledger read, so concurrent saves evaluate serially.
func (e *Evaluator) Commit(ctx context.Context, tx Tx, exerciseID, workoutID int, s Set) (Improvements, error) {
	if err := validateSet(s); err != nil {
		return nil, err
	}

	if err := tx.LockExercise(ctx, exerciseID); err != nil {
		return nil, err
	}

	imps, err := e.Check(ctx, tx, exerciseID, s)
	if err != nil {
		return nil, err
	}

	var newPRID *int
	_, heavier := imps[MetricHeaviestWeight]
	_, stronger := imps[MetricOneRM]
	_, bigger := imps[MetricSetVolume]
	if heavier || stronger || bigger {
		id, err := tx.InsertPR(ctx, PersonalRecord{
			HeaviestWeight: s.Weight,
			OneRM:          OneRepMax(s.Weight, s.Reps),
			SetVolume:      s.Weight * s.Reps,
			ExerciseID:     exerciseID,
			WorkoutID:      workoutID,
		})
		if err != nil {
			return nil, fmt.Errorf("append pr: %w", err)
		}
		newPRID = &id
		log.Debugf("exercise %d: new pr %d [weight %d, reps %d]", exerciseID, id, s.Weight, s.Reps)
	}

	if _, ok := imps[MetricHighestReps]; ok {
		prRef := newPRID
		if prRef == nil {
			// keep pointing at whatever pr row the previous
			// best-reps entry referenced
			prev, err := tx.HighestRepsAt(ctx, exerciseID, s.Weight)
			if err != nil {
				return nil, err
			}
			if prev != nil {
				prRef = prev.PRID
			}
		}
		err := tx.UpsertHighestReps(ctx, RepsAtWeight{
			ExerciseID:  exerciseID,
			Weight:      s.Weight,
			HighestReps: s.Reps,
			PRID:        prRef,
		})
		if err != nil {
			return nil, fmt.Errorf("record highest reps: %w", err)
		}
	}

	return imps, nil
}
