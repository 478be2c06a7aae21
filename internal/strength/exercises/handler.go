package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

const (
	idCacheSize      = 256 * 1024
	idCacheExpireSec = 3600
)

type catalogRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Delete(ctx context.Context, id int) error
	IDByName(ctx context.Context, name string) (int, error)
	Search(ctx context.Context, partialName string) ([]SearchResult, error)
}

type ExerciseIDResponse struct {
	ExerciseID int `json:"exercise_id"`
}

type DeletedExerciseResponse struct {
	DeletedID int `json:"deleted_id"`
}

type Handler struct {
	repo catalogRepo
	// name to id lookups hit on every typeahead keystroke, cache them
	idCache *freecache.Cache
}

func NewHandler(repo catalogRepo) *Handler {
	return &Handler{
		repo:    repo,
		idCache: freecache.NewCache(idCacheSize),
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/exercises", handler.HandleAdd).Methods("POST", "OPTIONS")
	router.HandleFunc("/exercises/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/exercises/id/{name}", handler.HandleIDByName).Methods("GET", "OPTIONS")
	router.HandleFunc("/exercises/search/{partial}", handler.HandleSearch).Methods("GET", "OPTIONS")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Tracef("add exercise, unmarshal json params: %s", err)
		http.Error(w, "invalid exercise payload", http.StatusBadRequest)
		return
	}

	if exercise.Name == "" || exercise.Type == "" || len(exercise.MusclesTrained) == 0 {
		http.Error(w, "exercise name, type and muscles trained are required", http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, exercise)
	if errors.Is(err, ErrExerciseExists) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		log.Errorf("add exercise [%s]: %s", exercise.Name, err)
		http.Error(w, "failed to add exercise", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("add exercise, marshal response: %s", err)
		http.Error(w, "failed to add exercise", http.StatusInternalServerError)
		return
	}
	log.Debugf("exercise added: %s [id %d]", added.Name, added.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid exercise id", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, id)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("delete exercise %d: %s", id, err)
		http.Error(w, "failed to delete exercise", http.StatusInternalServerError)
		return
	}

	// cached ids are keyed by name, the deleted one is unknown here
	handler.idCache.Clear()

	resJson, err := json.Marshal(DeletedExerciseResponse{DeletedID: id})
	if err != nil {
		log.Errorf("delete exercise, marshal response: %s", err)
		http.Error(w, "failed to delete exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleIDByName(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.idByName")
	defer span.End()

	name := mux.Vars(r)["name"]
	cacheKey := []byte(strings.ToLower(name))
	if cached, err := handler.idCache.Get(cacheKey); err == nil {
		if id, err := strconv.Atoi(string(cached)); err == nil {
			handler.writeID(w, id)
			return
		}
	}

	id, err := handler.repo.IDByName(ctx, name)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("exercise id by name [%s]: %s", name, err)
		http.Error(w, "failed to get exercise id", http.StatusInternalServerError)
		return
	}

	if err := handler.idCache.Set(cacheKey, []byte(strconv.Itoa(id)), idCacheExpireSec); err != nil {
		log.Tracef("cache exercise id [%s]: %s", name, err)
	}
	handler.writeID(w, id)
}

func (handler *Handler) writeID(w http.ResponseWriter, id int) {
	resJson, err := json.Marshal(ExerciseIDResponse{ExerciseID: id})
	if err != nil {
		log.Errorf("exercise id, marshal response: %s", err)
		http.Error(w, "failed to get exercise id", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.search")
	defer span.End()

	partial := mux.Vars(r)["partial"]
	results, err := handler.repo.Search(ctx, partial)
	if err != nil {
		log.Errorf("search exercises [%s]: %s", partial, err)
		http.Error(w, "failed to search exercises", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}

	resJson, err := json.Marshal(results)
	if err != nil {
		log.Errorf("search exercises, marshal response: %s", err)
		http.Error(w, "failed to search exercises", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}
