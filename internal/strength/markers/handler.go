package markers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/metrics"
	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
	"github.com/AryanAngiras31/StrongerYou/pkg"
)

type markersRepo interface {
	GetByName(ctx context.Context, name string) (*Marker, error)
	Create(ctx context.Context, marker Marker) (int, error)
	Update(ctx context.Context, markerID int, patch MarkerPatch) (*Marker, error)
	Delete(ctx context.Context, markerID int) error
	AddLog(ctx context.Context, markerID int, entry LogEntry) error
	Aggregate(ctx context.Context, markerID int, metric string, from, to Date) (float64, error)
	Timeline(ctx context.Context, markerID int, from, to Date) ([]TimelineEntry, error)
}

type CreateMarkerResponse struct {
	MarkerID int `json:"marker_id"`
}

type DeleteMarkerResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	repo           markersRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo markersRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	markersRouter := router.PathPrefix("/markers").Subrouter()
	markersRouter.HandleFunc("", handler.HandleGetByName).Methods("GET", "OPTIONS")
	markersRouter.HandleFunc("", handler.HandleCreate).Methods("POST", "OPTIONS")
	markersRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS")
	markersRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS")
	markersRouter.HandleFunc("/{id}/logs", handler.HandleAddLog).Methods("POST", "OPTIONS")
	markersRouter.HandleFunc("/{id}/analytics", handler.HandleAnalytics).Methods("GET", "OPTIONS")
	markersRouter.HandleFunc("/{id}/timeline", handler.HandleTimeline).Methods("GET", "OPTIONS")
}

func (handler *Handler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.getByName")
	defer span.End()

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name parameter is required", http.StatusBadRequest)
		return
	}

	marker, err := handler.repo.GetByName(ctx, name)
	if errors.Is(err, ErrMarkerNotFound) {
		http.Error(w, "marker not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get marker [%s]: %s", name, err)
		http.Error(w, "failed to get marker", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(marker)
	if err != nil {
		log.Errorf("get marker, marshal response: %s", err)
		http.Error(w, "failed to get marker", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.create")
	defer span.End()

	var marker Marker
	if err := json.NewDecoder(r.Body).Decode(&marker); err != nil {
		log.Tracef("create marker, unmarshal json params: %s", err)
		http.Error(w, "invalid marker payload", http.StatusBadRequest)
		return
	}
	if marker.Name == "" {
		http.Error(w, "marker name cannot be empty", http.StatusBadRequest)
		return
	}

	id, err := handler.repo.Create(ctx, marker)
	if err != nil {
		log.Errorf("create marker [%s]: %s", marker.Name, err)
		http.Error(w, "failed to create marker", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(CreateMarkerResponse{MarkerID: id})
	if err != nil {
		log.Errorf("create marker, marshal response: %s", err)
		http.Error(w, "failed to create marker", http.StatusInternalServerError)
		return
	}
	log.Debugf("marker created: %s [id %d]", marker.Name, id)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.update")
	defer span.End()

	markerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid marker id", http.StatusBadRequest)
		return
	}

	var patch MarkerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Tracef("update marker, unmarshal json params: %s", err)
		http.Error(w, "invalid marker payload", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.Update(ctx, markerID, patch)
	switch {
	case errors.Is(err, ErrEmptyPatch):
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	case errors.Is(err, ErrMarkerNotFound):
		http.Error(w, "marker not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("update marker %d: %s", markerID, err)
		http.Error(w, "failed to update marker", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("update marker, marshal response: %s", err)
		http.Error(w, "failed to update marker", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.delete")
	defer span.End()

	markerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid marker id", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, markerID)
	if errors.Is(err, ErrMarkerNotFound) {
		http.Error(w, "marker not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("delete marker %d: %s", markerID, err)
		http.Error(w, "failed to delete marker", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(DeleteMarkerResponse{Status: "deleted"})
	if err != nil {
		log.Errorf("delete marker, marshal response: %s", err)
		http.Error(w, "failed to delete marker", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleAddLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.addLog")
	defer span.End()

	markerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid marker id", http.StatusBadRequest)
		return
	}

	var entry LogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Tracef("log marker value, unmarshal json params: %s", err)
		http.Error(w, "invalid log payload", http.StatusBadRequest)
		return
	}

	if err := handler.repo.AddLog(ctx, markerID, entry); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "marker not found", http.StatusNotFound)
			return
		}
		log.Errorf("log marker %d value: %s", markerID, err)
		http.Error(w, "failed to log marker value", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterMarkerLogs.Inc()

	resJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("log marker value, marshal response: %s", err)
		http.Error(w, "failed to log marker value", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.analytics")
	defer span.End()

	markerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid marker id", http.StatusBadRequest)
		return
	}

	from, to, err := dateRangeParams(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = MetricAverage
	}

	value, err := handler.repo.Aggregate(ctx, markerID, metric, from, to)
	if err != nil {
		log.Errorf("marker %d analytics: %s", markerID, err)
		http.Error(w, "failed to get marker analytics", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(Analytics{
		Value:      value,
		MetricType: metric,
		StartDate:  from,
		EndDate:    to,
	})
	if err != nil {
		log.Errorf("marker analytics, marshal response: %s", err)
		http.Error(w, "failed to get marker analytics", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

func (handler *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.markers.timeline")
	defer span.End()

	markerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid marker id", http.StatusBadRequest)
		return
	}

	from, to, err := dateRangeParams(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}

	timeline, err := handler.repo.Timeline(ctx, markerID, from, to)
	if err != nil {
		log.Errorf("marker %d timeline: %s", markerID, err)
		http.Error(w, "failed to get marker timeline", http.StatusInternalServerError)
		return
	}
	if timeline == nil {
		timeline = []TimelineEntry{}
	}

	resJson, err := json.Marshal(timeline)
	if err != nil {
		log.Errorf("marker timeline, marshal response: %s", err)
		http.Error(w, "failed to get marker timeline", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

// dateRangeParams reads the optional from/to params, defaulting to the
// epoch and today.
func dateRangeParams(r *http.Request) (from, to Date, err error) {
	from = NewDate(1970, time.January, 1)
	to = Date{Time: time.Now()}

	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		if from, err = ParseDate(fromParam); err != nil {
			return Date{}, Date{}, err
		}
	}
	if toParam := r.URL.Query().Get("to"); toParam != "" {
		if to, err = ParseDate(toParam); err != nil {
			return Date{}, Date{}, err
		}
	}
	return from, to, nil
}
