package workouts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanAngiras31/StrongerYou/internal/strength/workouts"
)

func TestOneRepMax(t *testing.T) {
	assert.InDelta(t, 99.310, workouts.OneRepMax(80, 8), 0.001)
	assert.InDelta(t, 100, workouts.OneRepMax(100, 1), 0.001)
	// at the rep cap the estimate is 36x the weight
	assert.InDelta(t, 3600, workouts.OneRepMax(100, 36), 0.001)
}

func TestEvaluator_Check_FirstEverSet(t *testing.T) {
	store := workouts.NewMockStore()
	store.AddExercise(1)
	evaluator := workouts.NewEvaluator()

	imps, err := evaluator.Check(context.Background(), store, 1, workouts.Set{Weight: 80, Reps: 8})
	require.NoError(t, err)

	// no prior records: everything counts as an improvement
	require.Len(t, imps, 4)
	assert.Equal(t, float64(80), imps[workouts.MetricHeaviestWeight])
	assert.InDelta(t, 99.310, imps[workouts.MetricOneRM], 0.001)
	assert.Equal(t, float64(640), imps[workouts.MetricSetVolume])
	assert.Equal(t, float64(8), imps[workouts.MetricHighestReps])
}

func TestEvaluator_Check_StrictComparison(t *testing.T) {
	ctx := context.Background()
	store := workouts.NewMockStore()
	store.AddExercise(1)
	store.AddRoutine(1)
	evaluator := workouts.NewEvaluator()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 80, Reps: 8})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	// an identical set matches every best exactly and improves nothing
	imps, err := evaluator.Check(ctx, store, 1, workouts.Set{Weight: 80, Reps: 8})
	require.NoError(t, err)
	assert.Empty(t, imps)
}

func TestEvaluator_Check_RepsOutOfRange(t *testing.T) {
	store := workouts.NewMockStore()
	evaluator := workouts.NewEvaluator()

	for _, reps := range []int{0, -1, 37, 100} {
		_, err := evaluator.Check(context.Background(), store, 1, workouts.Set{Weight: 80, Reps: reps})
		assert.ErrorIs(t, err, workouts.ErrRepsOutOfRange, "reps %d", reps)
	}

	_, err := evaluator.Check(context.Background(), store, 1, workouts.Set{Weight: -5, Reps: 5})
	assert.ErrorIs(t, err, workouts.ErrInvalidWeight)
}

func TestEvaluator_Check_HighestRepsIndependentPerWeight(t *testing.T) {
	ctx := context.Background()
	store := workouts.NewMockStore()
	store.AddExercise(1)
	evaluator := workouts.NewEvaluator()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 100, Reps: 3})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	// lighter weight, more reps: no ledger metric improves, but the
	// per-weight rep best is untouched territory
	imps, err := evaluator.Check(ctx, store, 1, workouts.Set{Weight: 60, Reps: 4})
	require.NoError(t, err)
	require.Len(t, imps, 1)
	assert.Equal(t, float64(4), imps[workouts.MetricHighestReps])
}

func TestEvaluator_Commit_LedgerRowCarriesCurrentSet(t *testing.T) {
	ctx := context.Background()
	store := workouts.NewMockStore()
	store.AddExercise(1)
	evaluator := workouts.NewEvaluator()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 80, Reps: 8})
	require.NoError(t, err)
	// heavier but lower volume than before: a new row still snapshots
	// this set's values, not a merge of bests
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 100, Reps: 2})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	prs := store.PRsFor(1)
	require.Len(t, prs, 2)
	assert.Equal(t, 100, prs[1].HeaviestWeight)
	assert.Equal(t, 200, prs[1].SetVolume)
	assert.InDelta(t, 102.857, prs[1].OneRM, 0.001)
}

func TestEvaluator_Commit_HighestRepsKeepsPriorPRReference(t *testing.T) {
	ctx := context.Background()
	store := workouts.NewMockStore()
	store.AddExercise(1)
	evaluator := workouts.NewEvaluator()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 100, Reps: 3})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	firstPRID := store.PRsFor(1)[0].ID

	// more reps at a lighter weight appends no ledger row, so the
	// best-reps entry for 60kg carries no reference of its own
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	imps, err := evaluator.Commit(ctx, tx, 1, 11, workouts.Set{Weight: 60, Reps: 5})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	require.Len(t, imps, 1)
	assert.Len(t, store.PRsFor(1), 1)

	best := store.BestRepsAt(1, 60)
	require.NotNil(t, best)
	assert.Equal(t, 5, best.HighestReps)
	assert.Nil(t, best.PRID)

	best100 := store.BestRepsAt(1, 100)
	require.NotNil(t, best100)
	require.NotNil(t, best100.PRID)
	assert.Equal(t, firstPRID, *best100.PRID)
}

func TestEvaluator_Commit_BestRepsMonotone(t *testing.T) {
	ctx := context.Background()
	store := workouts.NewMockStore()
	store.AddExercise(1)
	evaluator := workouts.NewEvaluator()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 80, Reps: 8})
	require.NoError(t, err)
	_, err = evaluator.Commit(ctx, tx, 1, 10, workouts.Set{Weight: 80, Reps: 5})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	best := store.BestRepsAt(1, 80)
	require.NotNil(t, best)
	assert.Equal(t, 8, best.HighestReps)
}
