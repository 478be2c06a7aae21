package routines

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

type routinesRepo interface {
	List(ctx context.Context, includeLastPerformed bool) ([]RoutineInfo, error)
	IDByName(ctx context.Context, name string) (int, error)
	Create(ctx context.Context, input RoutineInput) (int, error)
	Update(ctx context.Context, routineID int, input RoutineInput) error
	Delete(ctx context.Context, routineID int) error
}

type CreateRoutineResponse struct {
	RoutineID int `json:"routine_id"`
}

type RoutineIDResponse struct {
	RoutineID int `json:"routine_id"`
}

type UpdateRoutineResponse struct {
	Status string `json:"status"`
}

type DeleteRoutineResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	repo routinesRepo
}

func NewHandler(repo routinesRepo) *Handler {
	return &Handler{repo: repo}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/routines", handler.HandleGet).Methods("GET", "OPTIONS")
	router.HandleFunc("/routines", handler.HandleCreate).Methods("POST", "OPTIONS")
	router.HandleFunc("/routines/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS")
	router.HandleFunc("/routines/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS")
}

// HandleGet serves both routine listing and name lookup: with a name
// param it resolves the id, otherwise it lists routines sorted by
// creation date.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.get")
	defer span.End()

	query := r.URL.Query()
	if name := query.Get("name"); name != "" {
		handler.handleIDByName(ctx, w, name)
		return
	}

	if query.Get("sort") != "createdAt" {
		http.Error(w, "sort parameter must be 'createdAt'", http.StatusBadRequest)
		return
	}
	includeLastPerformed := query.Get("include") == "lastPerformed"

	routines, err := handler.repo.List(ctx, includeLastPerformed)
	if err != nil {
		log.Errorf("list routines: %s", err)
		http.Error(w, "failed to list routines", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(routines)
	if err != nil {
		log.Errorf("list routines, marshal response: %s", err)
		http.Error(w, "failed to list routines", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) handleIDByName(ctx context.Context, w http.ResponseWriter, name string) {
	id, err := handler.repo.IDByName(ctx, name)
	if errors.Is(err, ErrRoutineNotFound) {
		http.Error(w, "routine not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("routine id by name [%s]: %s", name, err)
		http.Error(w, "failed to get routine id", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(RoutineIDResponse{RoutineID: id})
	if err != nil {
		log.Errorf("routine id, marshal response: %s", err)
		http.Error(w, "failed to get routine id", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.create")
	defer span.End()

	input, ok := decodeRoutineInput(w, r)
	if !ok {
		return
	}

	routineID, err := handler.repo.Create(ctx, input)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("create routine [%s]: %s", input.Name, err)
		http.Error(w, "failed to create routine", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(CreateRoutineResponse{RoutineID: routineID})
	if err != nil {
		log.Errorf("create routine, marshal response: %s", err)
		http.Error(w, "failed to create routine", http.StatusInternalServerError)
		return
	}
	log.Debugf("routine created: %s [id %d]", input.Name, routineID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.update")
	defer span.End()

	routineID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid routine id", http.StatusBadRequest)
		return
	}

	input, ok := decodeRoutineInput(w, r)
	if !ok {
		return
	}

	err = handler.repo.Update(ctx, routineID, input)
	switch {
	case errors.Is(err, ErrRoutineNotFound):
		http.Error(w, "routine not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("update routine %d: %s", routineID, err)
		http.Error(w, "failed to update routine", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(UpdateRoutineResponse{Status: "updated"})
	if err != nil {
		log.Errorf("update routine, marshal response: %s", err)
		http.Error(w, "failed to update routine", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.delete")
	defer span.End()

	routineID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid routine id", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, routineID)
	if errors.Is(err, ErrRoutineNotFound) {
		http.Error(w, "routine not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("delete routine %d: %s", routineID, err)
		http.Error(w, "failed to delete routine", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(DeleteRoutineResponse{Status: "deleted"})
	if err != nil {
		log.Errorf("delete routine, marshal response: %s", err)
		http.Error(w, "failed to delete routine", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func decodeRoutineInput(w http.ResponseWriter, r *http.Request) (RoutineInput, bool) {
	var input RoutineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Tracef("routine input, unmarshal json params: %s", err)
		http.Error(w, "invalid routine payload", http.StatusBadRequest)
		return RoutineInput{}, false
	}
	if input.Name == "" {
		http.Error(w, "routine name cannot be empty", http.StatusBadRequest)
		return RoutineInput{}, false
	}
	if len(input.Exercises) == 0 {
		http.Error(w, "routine must include at least one exercise", http.StatusBadRequest)
		return RoutineInput{}, false
	}
	return input, true
}
