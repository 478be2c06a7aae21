package routines

import (
	"errors"
	"time"
)

// RoutineExercise is one prescribed exercise of a routine and how many
// sets it should be performed for.
type RoutineExercise struct {
	ExerciseID int `json:"exercise_id"`
	Sets       int `json:"sets"`
}

// RoutineInput is the payload for creating or fully replacing a routine.
type RoutineInput struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Exercises   []RoutineExercise `json:"exercises"`
}

// RoutineInfo is one routine as listed, optionally with the date it was
// last performed.
type RoutineInfo struct {
	RoutineID     int        `json:"routine_id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastPerformed *time.Time `json:"last_performed,omitempty"`
}

var (
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrExerciseNotFound = errors.New("exercise not found")
)
