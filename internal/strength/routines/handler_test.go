package routines_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanAngiras31/StrongerYou/internal/strength/routines"
)

type mockRoutinesRepo struct {
	mutex  sync.Mutex
	nextID int
	byID   map[int]routines.RoutineInput
}

func newMockRoutinesRepo() *mockRoutinesRepo {
	return &mockRoutinesRepo{nextID: 1, byID: map[int]routines.RoutineInput{}}
}

func (m *mockRoutinesRepo) List(_ context.Context, includeLastPerformed bool) ([]routines.RoutineInfo, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	infos := []routines.RoutineInfo{}
	for id := 1; id < m.nextID; id++ {
		input, ok := m.byID[id]
		if !ok {
			continue
		}
		info := routines.RoutineInfo{
			RoutineID: id,
			Name:      input.Name,
			CreatedAt: time.Date(2025, 1, id, 0, 0, 0, 0, time.UTC),
		}
		if includeLastPerformed {
			lastPerformed := time.Date(2025, 2, id, 0, 0, 0, 0, time.UTC)
			info.LastPerformed = &lastPerformed
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (m *mockRoutinesRepo) IDByName(_ context.Context, name string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id, input := range m.byID {
		if input.Name == name {
			return id, nil
		}
	}
	return 0, routines.ErrRoutineNotFound
}

func (m *mockRoutinesRepo) Create(_ context.Context, input routines.RoutineInput) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	id := m.nextID
	m.nextID++
	m.byID[id] = input
	return id, nil
}

func (m *mockRoutinesRepo) Update(_ context.Context, routineID int, input routines.RoutineInput) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.byID[routineID]; !ok {
		return routines.ErrRoutineNotFound
	}
	m.byID[routineID] = input
	return nil
}

func (m *mockRoutinesRepo) Delete(_ context.Context, routineID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.byID[routineID]; !ok {
		return routines.ErrRoutineNotFound
	}
	delete(m.byID, routineID)
	return nil
}

func newTestRouter(repo *mockRoutinesRepo) *mux.Router {
	router := mux.NewRouter()
	routines.NewHandler(repo).SetupRoutes(router)
	return router
}

func createTestRoutine(t *testing.T, repo *mockRoutinesRepo, name string) int {
	t.Helper()
	id, err := repo.Create(context.Background(), routines.RoutineInput{
		Name:      name,
		Exercises: []routines.RoutineExercise{{ExerciseID: 1, Sets: 3}},
	})
	require.NoError(t, err)
	return id
}

func TestHandler_Create(t *testing.T) {
	repo := newMockRoutinesRepo()
	router := newTestRouter(repo)

	body := `{
		"name": "Push Day",
		"description": "Chest and triceps",
		"exercises": [
			{"exercise_id": 1, "sets": 3},
			{"exercise_id": 2, "sets": 4}
		]
	}`
	req := httptest.NewRequest("POST", "/routines", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"routine_id":1}`, rr.Body.String())
	assert.Len(t, repo.byID[1].Exercises, 2)
}

func TestHandler_Create_Invalid(t *testing.T) {
	router := newTestRouter(newMockRoutinesRepo())

	for name, body := range map[string]string{
		"empty name":   `{"name": "", "exercises": [{"exercise_id": 1, "sets": 3}]}`,
		"no exercises": `{"name": "Push Day", "exercises": []}`,
		"not json":     `push day`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/routines", bytes.NewBufferString(body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_List(t *testing.T) {
	repo := newMockRoutinesRepo()
	createTestRoutine(t, repo, "Push Day")
	createTestRoutine(t, repo, "Pull Day")
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/routines?sort=createdAt", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var infos []routines.RoutineInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "Push Day", infos[0].Name)
	assert.Nil(t, infos[0].LastPerformed)

	req = httptest.NewRequest("GET", "/routines?sort=createdAt&include=lastPerformed", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.NotNil(t, infos[0].LastPerformed)
}

func TestHandler_List_RequiresSortParam(t *testing.T) {
	router := newTestRouter(newMockRoutinesRepo())

	req := httptest.NewRequest("GET", "/routines", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_IDByName(t *testing.T) {
	repo := newMockRoutinesRepo()
	createTestRoutine(t, repo, "Push Day")
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/routines?name=Push%20Day", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"routine_id":1}`, rr.Body.String())

	req = httptest.NewRequest("GET", "/routines?name=Leg%20Day", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Update(t *testing.T) {
	repo := newMockRoutinesRepo()
	routineID := createTestRoutine(t, repo, "Push Day")
	router := newTestRouter(repo)

	body := `{"name": "Push Day v2", "exercises": [{"exercise_id": 3, "sets": 5}]}`
	req := httptest.NewRequest("PUT", "/routines/1", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"updated"}`, rr.Body.String())
	assert.Equal(t, "Push Day v2", repo.byID[routineID].Name)
	assert.Equal(t, 3, repo.byID[routineID].Exercises[0].ExerciseID)
}

func TestHandler_Update_NotFound(t *testing.T) {
	router := newTestRouter(newMockRoutinesRepo())

	body := `{"name": "Push Day", "exercises": [{"exercise_id": 1, "sets": 3}]}`
	req := httptest.NewRequest("PUT", "/routines/99", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Delete(t *testing.T) {
	repo := newMockRoutinesRepo()
	createTestRoutine(t, repo, "Push Day")
	router := newTestRouter(repo)

	req := httptest.NewRequest("DELETE", "/routines/1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())

	req = httptest.NewRequest("DELETE", "/routines/1", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
