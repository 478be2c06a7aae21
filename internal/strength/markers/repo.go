package markers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetByName(ctx context.Context, name string) (_ *Marker, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.getByName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var marker Marker
	err = r.db.QueryRow(ctx, `
		SELECT marker_id, marker_name, colour, user_id
		FROM marker_list
		WHERE marker_name = $1;`, name,
	).Scan(&marker.ID, &marker.Name, &marker.Colour, &marker.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMarkerNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query marker: %w", err)
	}
	return &marker, nil
}

func (r *Repo) Create(ctx context.Context, marker Marker) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = r.db.QueryRow(ctx, `
		INSERT INTO marker_list (marker_name, colour, user_id)
		VALUES ($1, $2, $3)
		RETURNING marker_id;`, marker.Name, marker.Colour, marker.UserID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert marker: %w", err)
	}
	return id, nil
}

// Update applies a partial update in a single statement. Nil patch
// fields keep their stored value.
func (r *Repo) Update(ctx context.Context, markerID int, patch MarkerPatch) (_ *Marker, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if patch.Name == nil && patch.Colour == nil {
		return nil, ErrEmptyPatch
	}

	var updated Marker
	err = r.db.QueryRow(ctx, `
		UPDATE marker_list
		SET marker_name = COALESCE($1, marker_name),
			colour = COALESCE($2, colour)
		WHERE marker_id = $3
		RETURNING marker_id, marker_name, colour, user_id;`,
		patch.Name, patch.Colour, markerID,
	).Scan(&updated.ID, &updated.Name, &updated.Colour, &updated.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrMarkerNotFound, markerID)
	}
	if err != nil {
		return nil, fmt.Errorf("update marker: %w", err)
	}
	return &updated, nil
}

func (r *Repo) Delete(ctx context.Context, markerID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM marker_list WHERE marker_id = $1;`, markerID,
	)
	if err != nil {
		return fmt.Errorf("delete marker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrMarkerNotFound, markerID)
	}
	return nil
}

func (r *Repo) AddLog(ctx context.Context, markerID int, entry LogEntry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.addLog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx, `
		INSERT INTO marker_log (marker_id, value, date, user_id)
		VALUES ($1, $2, $3, $4);`, markerID, entry.Value, entry.Date, entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert marker log: %w", err)
	}
	return nil
}

// Aggregate computes the sum or average of a marker's values within the
// date range. No logged values aggregate to zero.
func (r *Repo) Aggregate(ctx context.Context, markerID int, metric string, from, to Date) (_ float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	aggregate := "AVG"
	if strings.EqualFold(metric, MetricSum) {
		aggregate = "SUM"
	}

	var value *float64
	err = r.db.QueryRow(ctx, `
		SELECT `+aggregate+`(value)
		FROM marker_log
		WHERE marker_id = $1 AND date BETWEEN $2 AND $3;`, markerID, from, to,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("query marker aggregate: %w", err)
	}
	if value == nil {
		return 0, nil
	}
	return *value, nil
}

func (r *Repo) Timeline(ctx context.Context, markerID int, from, to Date) (_ []TimelineEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "markers.repo.timeline")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT value, date
		FROM marker_log
		WHERE marker_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date;`, markerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query marker timeline: %w", err)
	}
	defer rows.Close()

	timeline := []TimelineEntry{}
	for rows.Next() {
		var entry TimelineEntry
		if err = rows.Scan(&entry.Value, &entry.Date); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		timeline = append(timeline, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return timeline, nil
}
