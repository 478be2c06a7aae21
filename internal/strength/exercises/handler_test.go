package exercises_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanAngiras31/StrongerYou/internal/strength/exercises"
)

type mockCatalogRepo struct {
	mutex     sync.Mutex
	nextID    int
	byID      map[int]exercises.Exercise
	idByNameN int
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{nextID: 1, byID: map[int]exercises.Exercise{}}
}

func (m *mockCatalogRepo) Add(_ context.Context, exercise exercises.Exercise) (*exercises.Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Name, exercise.Name) {
			return nil, exercises.ErrExerciseExists
		}
	}
	exercise.ID = m.nextID
	m.nextID++
	m.byID[exercise.ID] = exercise
	return &exercise, nil
}

func (m *mockCatalogRepo) Delete(_ context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.byID[id]; !ok {
		return exercises.ErrExerciseNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockCatalogRepo) IDByName(_ context.Context, name string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.idByNameN++
	for id, existing := range m.byID {
		if strings.EqualFold(existing.Name, name) {
			return id, nil
		}
	}
	return 0, exercises.ErrExerciseNotFound
}

func (m *mockCatalogRepo) Search(_ context.Context, partialName string) ([]exercises.SearchResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var results []exercises.SearchResult
	for id, existing := range m.byID {
		if strings.Contains(strings.ToLower(existing.Name), strings.ToLower(partialName)) {
			results = append(results, exercises.SearchResult{
				ID:             id,
				Name:           existing.Name,
				MusclesTrained: existing.MusclesTrained,
			})
		}
	}
	return results, nil
}

func newTestRouter(repo *mockCatalogRepo) *mux.Router {
	router := mux.NewRouter()
	exercises.NewHandler(repo).SetupRoutes(router)
	return router
}

func TestHandler_Add(t *testing.T) {
	repo := newMockCatalogRepo()
	router := newTestRouter(repo)

	body := `{
		"exercise_name": "Bench Press",
		"muscles_trained": ["Chest", "Triceps"],
		"exercise_type": "Regular"
	}`
	req := httptest.NewRequest("POST", "/exercises", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var added exercises.Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, "Bench Press", added.Name)

	// same name, different case: conflict
	req = httptest.NewRequest("POST", "/exercises", bytes.NewBufferString(`{
		"exercise_name": "bench press",
		"muscles_trained": ["Chest"],
		"exercise_type": "Regular"
	}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_Add_MissingFields(t *testing.T) {
	router := newTestRouter(newMockCatalogRepo())

	req := httptest.NewRequest("POST", "/exercises", bytes.NewBufferString(`{"exercise_name": "Dips"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Delete(t *testing.T) {
	repo := newMockCatalogRepo()
	_, err := repo.Add(context.Background(), exercises.Exercise{
		Name: "Dips", MusclesTrained: []string{"Chest"}, Type: "Regular",
	})
	require.NoError(t, err)
	router := newTestRouter(repo)

	req := httptest.NewRequest("DELETE", "/exercises/1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleted_id":1}`, rr.Body.String())

	req = httptest.NewRequest("DELETE", "/exercises/1", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_IDByName(t *testing.T) {
	repo := newMockCatalogRepo()
	_, err := repo.Add(context.Background(), exercises.Exercise{
		Name: "Lat Pulldown", MusclesTrained: []string{"Back"}, Type: "Regular",
	})
	require.NoError(t, err)
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/exercises/id/Lat%20Pulldown", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"exercise_id":1}`, rr.Body.String())

	// second lookup is served from cache
	req = httptest.NewRequest("GET", "/exercises/id/lat%20pulldown", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"exercise_id":1}`, rr.Body.String())
	assert.Equal(t, 1, repo.idByNameN)

	req = httptest.NewRequest("GET", "/exercises/id/Nonexistent", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Search(t *testing.T) {
	repo := newMockCatalogRepo()
	ctx := context.Background()
	for _, name := range []string{"Bench Press", "Incline Press (Dumbbell)", "Barbell Squat"} {
		_, err := repo.Add(ctx, exercises.Exercise{
			Name: name, MusclesTrained: []string{"Chest"}, Type: "Regular",
		})
		require.NoError(t, err)
	}
	router := newTestRouter(repo)

	req := httptest.NewRequest("GET", "/exercises/search/press", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var results []exercises.SearchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &results))
	assert.Len(t, results, 2)
}

func TestHandler_Search_NoMatchesIsAList(t *testing.T) {
	router := newTestRouter(newMockCatalogRepo())

	req := httptest.NewRequest("GET", "/exercises/search/nothing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}
