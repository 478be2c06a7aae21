package workouts

import (
	"context"
	"time"

	"github.com/AryanAngiras31/StrongerYou/internal/telemetry/tracing"
)

type statsRepo interface {
	VolumeOverTime(ctx context.Context, exerciseID int, from, to *time.Time) ([]StatPoint, error)
	MaxWeightOverTime(ctx context.Context, exerciseID int, from, to *time.Time) ([]StatPoint, error)
	PRHistory(ctx context.Context, exerciseID int) ([]PRHistoryEntry, error)
}

// Analyzer serves the per-exercise progress queries. Series come back
// chronological and never nil, so an exercise without data renders as
// an empty list.
type Analyzer struct {
	repo statsRepo
}

func NewAnalyzer(repo statsRepo) *Analyzer {
	return &Analyzer{repo: repo}
}

// VolumeOverTime returns total volume (sum of weight * reps over all
// sets) per workout, within the optional time bounds.
func (a *Analyzer) VolumeOverTime(ctx context.Context, exerciseID int, from, to *time.Time) (_ []StatPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.volumeOverTime")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	points, err := a.repo.VolumeOverTime(ctx, exerciseID, from, to)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []StatPoint{}
	}
	return points, nil
}

// MaxWeightOverTime returns the heaviest set weight per workout, within
// the optional time bounds.
func (a *Analyzer) MaxWeightOverTime(ctx context.Context, exerciseID int, from, to *time.Time) (_ []StatPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.maxWeightOverTime")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	points, err := a.repo.MaxWeightOverTime(ctx, exerciseID, from, to)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []StatPoint{}
	}
	return points, nil
}

// PRHistory returns the record ledger for an exercise, best first.
func (a *Analyzer) PRHistory(ctx context.Context, exerciseID int) (_ []PRHistoryEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.prHistory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	history, err := a.repo.PRHistory(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []PRHistoryEntry{}
	}
	return history, nil
}
