package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Provision creates all tables and indices if they do not exist yet.
// The schema is additive only - changing existing columns is out of scope.
func Provision(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			date_joined DATE NOT NULL DEFAULT CURRENT_DATE
		);`,
		`CREATE TABLE IF NOT EXISTS routine (
			routine_id SERIAL PRIMARY KEY,
			routine_name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			user_id INTEGER REFERENCES users(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS exercise_list (
			exercise_id SERIAL PRIMARY KEY,
			exercise_name VARCHAR(255) UNIQUE NOT NULL,
			muscles_trained TEXT[] NOT NULL,
			exercise_type VARCHAR(255) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS workout (
			workout_id SERIAL PRIMARY KEY,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			routine_id INTEGER REFERENCES routine(routine_id)
		);`,
		`CREATE TABLE IF NOT EXISTS workout_set (
			set_id SERIAL PRIMARY KEY,
			weight SMALLINT NOT NULL,
			reps SMALLINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS workout_exercise_set (
			workout_id INTEGER REFERENCES workout(workout_id),
			exercise_id INTEGER REFERENCES exercise_list(exercise_id),
			set_id INTEGER REFERENCES workout_set(set_id),
			PRIMARY KEY (workout_id, exercise_id, set_id)
		);`,
		`CREATE TABLE IF NOT EXISTS pr (
			pr_id SERIAL PRIMARY KEY,
			heaviest_weight SMALLINT NOT NULL,
			one_rm REAL NOT NULL,
			set_volume INTEGER NOT NULL,
			exercise_id INTEGER REFERENCES exercise_list(exercise_id),
			workout_id INTEGER REFERENCES workout(workout_id)
		);`,
		`CREATE TABLE IF NOT EXISTS highest_reps_per_weight (
			id SERIAL PRIMARY KEY,
			weight SMALLINT NOT NULL,
			highest_reps SMALLINT NOT NULL,
			exercise_id INTEGER REFERENCES exercise_list(exercise_id),
			pr_id INTEGER REFERENCES pr(pr_id),
			UNIQUE (exercise_id, weight)
		);`,
		`CREATE TABLE IF NOT EXISTS routine_exercise_set (
			routine_id INTEGER REFERENCES routine(routine_id),
			exercise_id INTEGER REFERENCES exercise_list(exercise_id),
			number_of_sets SMALLINT NOT NULL,
			PRIMARY KEY (routine_id, exercise_id)
		);`,
		`CREATE TABLE IF NOT EXISTS marker_list (
			marker_id SERIAL PRIMARY KEY,
			marker_name VARCHAR(255) NOT NULL,
			colour VARCHAR(10),
			user_id INTEGER REFERENCES users(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS marker_log (
			marker_id INTEGER REFERENCES marker_list(marker_id),
			value REAL NOT NULL,
			date DATE NOT NULL,
			user_id INTEGER REFERENCES users(user_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_routine_user ON routine(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_workout_routine ON workout(routine_id);`,
		`CREATE INDEX IF NOT EXISTS idx_wes_exercise ON workout_exercise_set(exercise_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pr_exercise ON pr(exercise_id);`,
		`CREATE INDEX IF NOT EXISTS idx_marker_log_marker ON marker_log(marker_id);`,
		`CREATE INDEX IF NOT EXISTS idx_marker_log_date ON marker_log(date);`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("provision schema: %w", err)
		}
	}

	return nil
}

type seedExercise struct {
	name    string
	muscles []string
	exType  string
}

var initialExercises = []seedExercise{
	{"Bench Press", []string{"Chest", "Shoulders", "Triceps"}, "Regular"},
	{"Incline Press (Dumbbell)", []string{"Chest", "Shoulders", "Triceps"}, "Single limb"},
	{"Incline Press (Smith Machine)", []string{"Chest", "Shoulders", "Triceps"}, "Regular"},
	{"Flat Press (Dumbbell)", []string{"Chest", "Shoulders", "Triceps"}, "Single limb"},
	{"Flat Press (Smith Machine)", []string{"Chest", "Shoulders", "Triceps"}, "Regular"},
	{"Seated Dips", []string{"Chest", "Triceps", "Shoulders"}, "Regular"},
	{"Standing Cable Chest Fly", []string{"Chest"}, "Regular"},
	{"Barbell Squat", []string{"Quads", "Glutes", "Hamstrings"}, "Regular"},
	{"Romanian Deadlift", []string{"Hamstrings", "Glutes", "Lower Back"}, "Regular"},
	{"Leg Press", []string{"Quads", "Glutes", "Hamstrings"}, "Regular"},
	{"Calf Raises", []string{"Calves"}, "Regular"},
	{"Pull-ups", []string{"Back", "Biceps"}, "Regular"},
	{"Barbell Rows", []string{"Back", "Biceps"}, "Regular"},
	{"Lat Pulldown", []string{"Back", "Biceps"}, "Regular"},
	{"Bicep Curls (Dumbbell)", []string{"Biceps"}, "Single limb"},
	{"Hammer Curls (Dumbbell)", []string{"Biceps", "Forearms"}, "Single limb"},
	{"Tricep Extensions (Cable)", []string{"Triceps"}, "Regular"},
	{"Overhead Press (Barbell)", []string{"Shoulders", "Triceps"}, "Regular"},
	{"Lateral Raises (Dumbbell)", []string{"Shoulders"}, "Single limb"},
	{"Front Raises (Dumbbell)", []string{"Shoulders"}, "Single limb"},
}

// SeedExercises inserts the initial exercise catalog, skipping names
// that are already present.
func SeedExercises(ctx context.Context, pool *pgxpool.Pool) error {
	for _, e := range initialExercises {
		tag, err := pool.Exec(ctx, `
			INSERT INTO exercise_list (exercise_name, muscles_trained, exercise_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (exercise_name) DO NOTHING;`,
			e.name, e.muscles, e.exType,
		)
		if err != nil {
			return fmt.Errorf("seed exercise %q: %w", e.name, err)
		}
		if tag.RowsAffected() > 0 {
			log.Debugf("seeded exercise: %s", e.name)
		}
	}
	return nil
}
