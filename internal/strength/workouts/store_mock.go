package workouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// MockStore is an in-memory Store used in tests. Begin snapshots the
// state, so a rollback really discards everything the transaction
// wrote.
type MockStore struct {
	mutex sync.Mutex
	state mockState

	// FailInsertSetOnCall makes the nth InsertSet call (1-based,
	// counted across transactions) fail. Zero disables it.
	FailInsertSetOnCall int
	insertSetCalls      int
}

type repsKey struct {
	exerciseID int
	weight     int
}

type mockWorkout struct {
	startTime time.Time
	endTime   *time.Time
	routineID *int
}

type mockSet struct {
	setID      int
	workoutID  int
	exerciseID int
	set        Set
}

type mockState struct {
	nextWorkoutID int
	nextSetID     int
	nextPRID      int
	exercises     map[int]bool
	routines      map[int]bool
	workouts      map[int]mockWorkout
	sets          []mockSet
	prs           []PersonalRecord
	bestReps      map[repsKey]RepsAtWeight
}

func NewMockStore() *MockStore {
	return &MockStore{
		state: mockState{
			nextWorkoutID: 1,
			nextSetID:     1,
			nextPRID:      1,
			exercises:     map[int]bool{},
			routines:      map[int]bool{},
			workouts:      map[int]mockWorkout{},
			bestReps:      map[repsKey]RepsAtWeight{},
		},
	}
}

func (m *MockStore) AddExercise(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.state.exercises[id] = true
}

func (m *MockStore) AddRoutine(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.state.routines[id] = true
}

func (m *MockStore) WorkoutsCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.state.workouts)
}

func (m *MockStore) SetsFor(workoutID int) []Set {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var sets []Set
	for _, s := range m.state.sets {
		if s.workoutID == workoutID {
			sets = append(sets, s.set)
		}
	}
	return sets
}

func (m *MockStore) PRsFor(exerciseID int) []PersonalRecord {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var prs []PersonalRecord
	for _, pr := range m.state.prs {
		if pr.ExerciseID == exerciseID {
			prs = append(prs, pr)
		}
	}
	return prs
}

func (m *MockStore) BestRepsAt(exerciseID, weight int) *RepsAtWeight {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if rec, ok := m.state.bestReps[repsKey{exerciseID, weight}]; ok {
		recCopy := rec
		return &recCopy
	}
	return nil
}

func (m *MockStore) LatestPR(_ context.Context, exerciseID int) (*PersonalRecord, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state.latestPR(exerciseID), nil
}

func (m *MockStore) HighestRepsAt(_ context.Context, exerciseID, weight int) (*RepsAtWeight, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state.highestRepsAt(exerciseID, weight), nil
}

func (m *MockStore) Begin(_ context.Context) (Tx, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return &mockTx{store: m, state: m.state.clone()}, nil
}

func (s *mockState) latestPR(exerciseID int) *PersonalRecord {
	for i := len(s.prs) - 1; i >= 0; i-- {
		if s.prs[i].ExerciseID == exerciseID {
			pr := s.prs[i]
			return &pr
		}
	}
	return nil
}

func (s *mockState) highestRepsAt(exerciseID, weight int) *RepsAtWeight {
	if rec, ok := s.bestReps[repsKey{exerciseID, weight}]; ok {
		recCopy := rec
		return &recCopy
	}
	return nil
}

func (s mockState) clone() mockState {
	cloned := s
	cloned.exercises = make(map[int]bool, len(s.exercises))
	for k, v := range s.exercises {
		cloned.exercises[k] = v
	}
	cloned.routines = make(map[int]bool, len(s.routines))
	for k, v := range s.routines {
		cloned.routines[k] = v
	}
	cloned.workouts = make(map[int]mockWorkout, len(s.workouts))
	for k, v := range s.workouts {
		cloned.workouts[k] = v
	}
	cloned.sets = append([]mockSet(nil), s.sets...)
	cloned.prs = append([]PersonalRecord(nil), s.prs...)
	cloned.bestReps = make(map[repsKey]RepsAtWeight, len(s.bestReps))
	for k, v := range s.bestReps {
		cloned.bestReps[k] = v
	}
	return cloned
}

type mockTx struct {
	store *MockStore
	state mockState
	done  bool
}

func (t *mockTx) Commit(_ context.Context) error {
	t.store.mutex.Lock()
	defer t.store.mutex.Unlock()
	if t.done {
		return errors.New("tx already closed")
	}
	t.done = true
	t.store.state = t.state
	return nil
}

func (t *mockTx) Rollback(_ context.Context) error {
	t.store.mutex.Lock()
	defer t.store.mutex.Unlock()
	t.done = true
	return nil
}

func (t *mockTx) LatestPR(_ context.Context, exerciseID int) (*PersonalRecord, error) {
	return t.state.latestPR(exerciseID), nil
}

func (t *mockTx) HighestRepsAt(_ context.Context, exerciseID, weight int) (*RepsAtWeight, error) {
	return t.state.highestRepsAt(exerciseID, weight), nil
}

func (t *mockTx) RoutineExists(_ context.Context, routineID int) (bool, error) {
	return t.state.routines[routineID], nil
}

func (t *mockTx) WorkoutRoutineID(_ context.Context, workoutID int) (*int, bool, error) {
	w, ok := t.state.workouts[workoutID]
	if !ok {
		return nil, false, nil
	}
	return w.routineID, true, nil
}

func (t *mockTx) InsertWorkout(_ context.Context, start time.Time, end *time.Time, routineID *int) (int, error) {
	id := t.state.nextWorkoutID
	t.state.nextWorkoutID++
	t.state.workouts[id] = mockWorkout{startTime: start, endTime: end, routineID: routineID}
	return id, nil
}

func (t *mockTx) InsertSet(_ context.Context, workoutID, exerciseID int, s Set) (int, error) {
	t.store.mutex.Lock()
	t.store.insertSetCalls++
	failOn := t.store.FailInsertSetOnCall
	calls := t.store.insertSetCalls
	t.store.mutex.Unlock()
	if failOn > 0 && calls == failOn {
		return 0, errors.New("insert set failed")
	}

	if !t.state.exercises[exerciseID] {
		return 0, &pgconn.PgError{Code: "23503", Message: "workout_exercise_set fk violation"}
	}
	id := t.state.nextSetID
	t.state.nextSetID++
	t.state.sets = append(t.state.sets, mockSet{
		setID:      id,
		workoutID:  workoutID,
		exerciseID: exerciseID,
		set:        s,
	})
	return id, nil
}

func (t *mockTx) LockExercise(_ context.Context, _ int) error {
	return nil
}

func (t *mockTx) InsertPR(_ context.Context, pr PersonalRecord) (int, error) {
	pr.ID = t.state.nextPRID
	t.state.nextPRID++
	t.state.prs = append(t.state.prs, pr)
	return pr.ID, nil
}

func (t *mockTx) UpsertHighestReps(_ context.Context, rec RepsAtWeight) error {
	key := repsKey{rec.ExerciseID, rec.Weight}
	if existing, ok := t.state.bestReps[key]; ok && existing.HighestReps >= rec.HighestReps {
		return nil
	}
	t.state.bestReps[key] = rec
	return nil
}
