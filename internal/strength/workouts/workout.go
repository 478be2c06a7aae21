package workouts

import "time"

// Set is one performed set of an exercise: how much weight was moved
// and how many times.
type Set struct {
	Weight int `json:"weight"`
	Reps   int `json:"reps"`
}

// WorkoutExercise groups the sets performed for one exercise within
// a workout, keyed by set number (1-based, insertion ordered).
type WorkoutExercise struct {
	ExerciseID int         `json:"exercise_id"`
	Sets       map[int]Set `json:"sets"`
}

// WorkoutData is the payload of finish_workout / modify_workout.
type WorkoutData struct {
	Exercises []WorkoutExercise `json:"exercises"`
	StartTime *time.Time        `json:"start_time,omitempty"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	RoutineID *int              `json:"routine_id,omitempty"`
}

// PersonalRecord is one row of the append-only PR ledger. Rows are never
// updated in place - every improvement appends a new one.
type PersonalRecord struct {
	ID             int     `json:"pr_id"`
	HeaviestWeight int     `json:"heaviest_weight"`
	OneRM          float64 `json:"one_rm"`
	SetVolume      int     `json:"set_volume"`
	ExerciseID     int     `json:"exercise_id"`
	WorkoutID      int     `json:"workout_id"`
}

// RepsAtWeight is the single mutable best-reps row for an
// (exercise, weight) pair. HighestReps never decreases.
type RepsAtWeight struct {
	ExerciseID  int  `json:"exercise_id"`
	Weight      int  `json:"weight"`
	HighestReps int  `json:"highest_reps"`
	PRID        *int `json:"pr_id,omitempty"`
}

// Metric names a tracked best-record dimension.
type Metric string

const (
	MetricHeaviestWeight Metric = "HeaviestWeight"
	MetricOneRM          Metric = "OneRM"
	MetricSetVolume      Metric = "SetVolume"
	MetricHighestReps    Metric = "HighestReps"
)

// Improvements maps each improved metric to its new value.
// Empty means nothing improved.
type Improvements map[Metric]float64

type WorkoutSummary struct {
	WorkoutID   int       `json:"workout_id"`
	RoutineName *string   `json:"routine_name,omitempty"`
	StartTime   time.Time `json:"start_time"`
}

type WorkoutExerciseDetail struct {
	ExerciseID   int         `json:"exercise_id"`
	ExerciseName string      `json:"exercise_name"`
	Sets         map[int]Set `json:"sets"`
}

type WorkoutDetail struct {
	WorkoutID   int                     `json:"workout_id"`
	RoutineID   *int                    `json:"routine_id,omitempty"`
	RoutineName *string                 `json:"routine_name,omitempty"`
	StartTime   time.Time               `json:"start_time"`
	Exercises   []WorkoutExerciseDetail `json:"exercises"`
}

// TemplateExercise is one exercise of a workout template seeded from a
// routine: the prescribed number of sets, all zeroed out.
type TemplateExercise struct {
	ExerciseID   int         `json:"exercise_id"`
	ExerciseName string      `json:"exercise_name"`
	Sets         map[int]Set `json:"sets"`
}

// StatPoint is one point of a per-exercise time series.
type StatPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PRHistoryEntry is one PR ledger row joined to its workout date.
type PRHistoryEntry struct {
	WorkoutDate    time.Time `json:"workout_date"`
	HeaviestWeight int       `json:"weight"`
	OneRM          float64   `json:"one_rm"`
	SetVolume      int       `json:"set_volume"`
}
