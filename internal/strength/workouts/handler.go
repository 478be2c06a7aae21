package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/metrics"
	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

type workoutsService interface {
	Finish(ctx context.Context, data WorkoutData) (SaveResult, error)
	Modify(ctx context.Context, workoutID int, data WorkoutData) (SaveResult, error)
	ValidateSet(ctx context.Context, exerciseID int, set Set) (Improvements, error)
}

type workoutsReader interface {
	ListWorkouts(ctx context.Context) ([]WorkoutSummary, error)
	GetWorkout(ctx context.Context, workoutID int) (*WorkoutDetail, error)
	Template(ctx context.Context, routineID int) ([]TemplateExercise, error)
}

type statsProvider interface {
	VolumeOverTime(ctx context.Context, exerciseID int, from, to *time.Time) ([]StatPoint, error)
	MaxWeightOverTime(ctx context.Context, exerciseID int, from, to *time.Time) ([]StatPoint, error)
	PRHistory(ctx context.Context, exerciseID int) ([]PRHistoryEntry, error)
}

type FinishWorkoutResponse struct {
	WorkoutID int `json:"workout_id"`
}

type ModifyWorkoutResponse struct {
	Status string `json:"status"`
}

type ValidateSetRequest struct {
	ExerciseID int `json:"exercise_id"`
	Set
}

type Handler struct {
	service        workoutsService
	reader         workoutsReader
	stats          statsProvider
	metricsManager *metrics.Manager
}

func NewHandler(
	service workoutsService,
	reader workoutsReader,
	stats statsProvider,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		service:        service,
		reader:         reader,
		stats:          stats,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", handler.HandleFinish).Methods("POST", "OPTIONS")
	router.HandleFunc("/workouts", handler.HandleList).Methods("GET", "OPTIONS")
	router.HandleFunc("/workouts/validate", handler.HandleValidateSet).Methods("POST", "OPTIONS")
	router.HandleFunc("/workouts/template/{routineId}", handler.HandleTemplate).Methods("GET", "OPTIONS")
	router.HandleFunc("/workouts/{id}", handler.HandleModify).Methods("PUT", "OPTIONS")
	router.HandleFunc("/workouts/{id}", handler.HandleGet).Methods("GET", "OPTIONS")
	router.HandleFunc("/exercises/volume/{id}", handler.HandleVolumeOverTime).Methods("GET", "OPTIONS")
	router.HandleFunc("/exercises/max-weight/{id}", handler.HandleMaxWeightOverTime).Methods("GET", "OPTIONS")
	router.HandleFunc("/exercises/prs/{id}", handler.HandlePRHistory).Methods("GET", "OPTIONS")
}

func (handler *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.finish")
	defer span.End()

	var data WorkoutData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Tracef("finish workout, unmarshal json params: %s", err)
		http.Error(w, "invalid workout payload", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Finish(ctx, data)
	if err != nil {
		handler.writeSaveError(w, err, "finish workout")
		return
	}

	handler.metricsManager.CounterWorkoutsSaved.Inc()
	handler.metricsManager.CounterPersonalRecords.Add(float64(result.NewRecords))

	resJson, err := json.Marshal(FinishWorkoutResponse{WorkoutID: result.WorkoutID})
	if err != nil {
		log.Errorf("finish workout, marshal response: %s", err)
		http.Error(w, "failed to save workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleModify(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.modify")
	defer span.End()

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	var data WorkoutData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Tracef("modify workout, unmarshal json params: %s", err)
		http.Error(w, "invalid workout payload", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Modify(ctx, workoutID, data)
	if err != nil {
		handler.writeSaveError(w, err, fmt.Sprintf("modify workout %d", workoutID))
		return
	}

	handler.metricsManager.CounterPersonalRecords.Add(float64(result.NewRecords))

	resJson, err := json.Marshal(ModifyWorkoutResponse{Status: "updated"})
	if err != nil {
		log.Errorf("modify workout, marshal response: %s", err)
		http.Error(w, "failed to modify workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusOK)
}

func (handler *Handler) HandleValidateSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.validateSet")
	defer span.End()

	var req ValidateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("validate set, unmarshal json params: %s", err)
		http.Error(w, "invalid set payload", http.StatusBadRequest)
		return
	}

	improvements, err := handler.service.ValidateSet(ctx, req.ExerciseID, req.Set)
	if err != nil {
		handler.writeSaveError(w, err, "validate set")
		return
	}

	resJson, err := json.Marshal(improvements)
	if err != nil {
		log.Errorf("validate set, marshal response: %s", err)
		http.Error(w, "failed to validate set", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	workouts, err := handler.reader.ListWorkouts(ctx)
	if err != nil {
		log.Errorf("list workouts: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("list workouts, marshal response: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	detail, err := handler.reader.GetWorkout(ctx, workoutID)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get workout %d: %s", workoutID, err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(detail)
	if err != nil {
		log.Errorf("get workout, marshal response: %s", err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.template")
	defer span.End()

	routineID, err := strconv.Atoi(mux.Vars(r)["routineId"])
	if err != nil {
		http.Error(w, "invalid routine id", http.StatusBadRequest)
		return
	}

	template, err := handler.reader.Template(ctx, routineID)
	if errors.Is(err, ErrRoutineNotFound) {
		http.Error(w, "routine not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("workout template for routine %d: %s", routineID, err)
		http.Error(w, "failed to get workout template", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(template)
	if err != nil {
		log.Errorf("workout template, marshal response: %s", err)
		http.Error(w, "failed to get workout template", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleVolumeOverTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.volumeOverTime")
	defer span.End()

	handler.handleStatSeries(ctx, w, r, handler.stats.VolumeOverTime, "volume")
}

func (handler *Handler) HandleMaxWeightOverTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.maxWeightOverTime")
	defer span.End()

	handler.handleStatSeries(ctx, w, r, handler.stats.MaxWeightOverTime, "max weight")
}

func (handler *Handler) handleStatSeries(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	query func(ctx context.Context, exerciseID int, from, to *time.Time) ([]StatPoint, error),
	statName string,
) {
	exerciseID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid exercise id", http.StatusBadRequest)
		return
	}

	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from param", http.StatusBadRequest)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to param", http.StatusBadRequest)
		return
	}

	points, err := query(ctx, exerciseID, from, to)
	if err != nil {
		log.Errorf("exercise %d %s series: %s", exerciseID, statName, err)
		http.Error(w, "failed to get exercise stats", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(points)
	if err != nil {
		log.Errorf("exercise stats, marshal response: %s", err)
		http.Error(w, "failed to get exercise stats", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandlePRHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.prHistory")
	defer span.End()

	exerciseID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid exercise id", http.StatusBadRequest)
		return
	}

	history, err := handler.stats.PRHistory(ctx, exerciseID)
	if err != nil {
		log.Errorf("exercise %d pr history: %s", exerciseID, err)
		http.Error(w, "failed to get pr history", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(history)
	if err != nil {
		log.Errorf("pr history, marshal response: %s", err)
		http.Error(w, "failed to get pr history", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) writeSaveError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrRepsOutOfRange),
		errors.Is(err, ErrInvalidWeight),
		errors.Is(err, ErrNoExercises):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrWorkoutNotFound),
		errors.Is(err, ErrRoutineNotFound),
		errors.Is(err, ErrExerciseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, "failed to save workout", http.StatusInternalServerError)
	}
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
