package exercises

import "errors"

// Exercise is one entry of the exercise catalog. Names are unique,
// compared case-insensitively.
type Exercise struct {
	ID             int      `json:"exercise_id"`
	Name           string   `json:"exercise_name"`
	MusclesTrained []string `json:"muscles_trained"`
	Type           string   `json:"exercise_type"`
}

// SearchResult is a trimmed-down catalog entry for typeahead search.
type SearchResult struct {
	ID             int      `json:"exercise_id"`
	Name           string   `json:"exercise_name"`
	MusclesTrained []string `json:"muscles_trained"`
}

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrExerciseExists   = errors.New("exercise already exists")
)
