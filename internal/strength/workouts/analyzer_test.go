package workouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanAngiras31/StrongerYou/internal/strength/workouts"
)

type nilStatsRepo struct{}

func (nilStatsRepo) VolumeOverTime(_ context.Context, _ int, _, _ *time.Time) ([]workouts.StatPoint, error) {
	return nil, nil
}

func (nilStatsRepo) MaxWeightOverTime(_ context.Context, _ int, _, _ *time.Time) ([]workouts.StatPoint, error) {
	return nil, nil
}

func (nilStatsRepo) PRHistory(_ context.Context, _ int) ([]workouts.PRHistoryEntry, error) {
	return nil, nil
}

func TestAnalyzer_EmptySeriesNeverNil(t *testing.T) {
	ctx := context.Background()
	analyzer := workouts.NewAnalyzer(nilStatsRepo{})

	points, err := analyzer.VolumeOverTime(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)

	points, err = analyzer.MaxWeightOverTime(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)

	history, err := analyzer.PRHistory(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
