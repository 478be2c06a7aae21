package workouts

import "errors"

var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrNoExercises      = errors.New("workout has no exercises")
	ErrRepsOutOfRange   = errors.New("reps must be between 1 and 36")
	ErrInvalidWeight    = errors.New("weight must not be negative")
)
