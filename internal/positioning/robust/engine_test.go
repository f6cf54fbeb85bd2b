package robust

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gps-no-locate/internal/positioning"
)

// scalarLocationProblem estimates a scalar location as the mean of a minimal
// pair of samples. Simple enough to reason about exactly, yet exercises the
// full engine loop.
type scalarLocationProblem struct {
	values []float64
}

func (p *scalarLocationProblem) NumSamples() int {
	return len(p.values)
}

func (p *scalarLocationProblem) SubsetSize() int {
	return 2
}

func (p *scalarLocationProblem) Fit(indices []int) ([]float64, error) {
	if len(indices) < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", len(indices))
	}
	sum := 0.0
	for _, i := range indices {
		sum += p.values[i]
	}
	return []float64{sum / float64(len(indices))}, nil
}

func (p *scalarLocationProblem) Residual(model []float64, sample int) float64 {
	return math.Abs(p.values[sample] - model[0])
}

// contaminatedProblem builds 20 samples spread around 10.0 plus 6 gross
// outliers at indices 20..25.
func contaminatedProblem() *scalarLocationProblem {
	values := make([]float64, 0, 26)
	for i := 0; i < 20; i++ {
		values = append(values, 10.0+0.01*float64(i)-0.1)
	}
	values = append(values, 30, 40, 50, 60, 70, 80)
	return &scalarLocationProblem{values: values}
}

func inlierIndices() []int {
	indices := make([]int, 20)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func TestEngineRejectsOutliers(t *testing.T) {
	scores := make([]float64, 26)
	for i := range scores {
		if i < 20 {
			scores[i] = 1.0
		} else {
			scores[i] = 0.01
		}
	}

	for _, method := range []Method{RANSAC, LMedS, MSAC, PROSAC, PROMedS} {
		t.Run(string(method), func(t *testing.T) {
			problem := contaminatedProblem()

			engine := NewEngine(method)
			require.NoError(t, engine.SetThreshold(0.5))
			require.NoError(t, engine.SetMaxIterations(500))
			require.NoError(t, engine.SetSeed(42))
			if method.UsesQualityScores() {
				require.NoError(t, engine.SetQualityScores(scores))
			}

			result, err := engine.Estimate(problem)
			require.NoError(t, err)

			assert.InDelta(t, 10.0, result.Model[0], 0.3)
			assert.ElementsMatch(t, inlierIndices(), result.Inliers)
			assert.Greater(t, result.Threshold, 0.0)
		})
	}
}

func TestEngineAdaptiveIterationBound(t *testing.T) {
	engine := NewEngine(RANSAC)
	require.NoError(t, engine.SetThreshold(0.5))
	require.NoError(t, engine.SetMaxIterations(5000))
	require.NoError(t, engine.SetSeed(7))

	result, err := engine.Estimate(contaminatedProblem())
	require.NoError(t, err)

	// With a 77% inlier ratio the 99% confidence bound is a handful of
	// iterations, far below the configured maximum.
	assert.Less(t, result.Iterations, 100)
}

func TestEngineSeedReproducibility(t *testing.T) {
	run := func() *Result {
		engine := NewEngine(MSAC)
		require.NoError(t, engine.SetThreshold(0.5))
		require.NoError(t, engine.SetMaxIterations(200))
		require.NoError(t, engine.SetSeed(1234))

		result, err := engine.Estimate(contaminatedProblem())
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()
	assert.Equal(t, first.Model, second.Model)
	assert.Equal(t, first.Inliers, second.Inliers)
	assert.Equal(t, first.Iterations, second.Iterations)
}

// unfittableProblem rejects every subset, so no model can ever be produced.
type unfittableProblem struct {
	n int
}

func (p *unfittableProblem) NumSamples() int {
	return p.n
}

func (p *unfittableProblem) SubsetSize() int {
	return 2
}

func (p *unfittableProblem) Fit(indices []int) ([]float64, error) {
	return nil, fmt.Errorf("subset is degenerate")
}

func (p *unfittableProblem) Residual(model []float64, sample int) float64 {
	return 0
}

func TestEngineFailsWithoutFittableModel(t *testing.T) {
	engine := NewEngine(RANSAC)
	require.NoError(t, engine.SetMaxIterations(50))
	require.NoError(t, engine.SetSeed(5))

	_, err := engine.Estimate(&unfittableProblem{n: 10})
	assert.ErrorIs(t, err, positioning.ErrRobustFailed)
}

func TestEngineNotReady(t *testing.T) {
	engine := NewEngine(RANSAC)

	_, err := engine.Estimate(nil)
	assert.ErrorIs(t, err, positioning.ErrNotReady)

	_, err = engine.Estimate(&scalarLocationProblem{values: []float64{1}})
	assert.ErrorIs(t, err, positioning.ErrNotReady)
}

func TestEngineProgressiveMethodsNeedScores(t *testing.T) {
	engine := NewEngine(PROSAC)
	require.NoError(t, engine.SetSeed(1))

	_, err := engine.Estimate(contaminatedProblem())
	assert.ErrorIs(t, err, positioning.ErrNotReady)
}

func TestEngineSetterValidation(t *testing.T) {
	engine := NewEngine(RANSAC)

	assert.ErrorIs(t, engine.SetThreshold(0), positioning.ErrInvalidArgument)
	assert.ErrorIs(t, engine.SetThreshold(-1), positioning.ErrInvalidArgument)
	assert.ErrorIs(t, engine.SetConfidence(0), positioning.ErrInvalidArgument)
	assert.ErrorIs(t, engine.SetConfidence(1), positioning.ErrInvalidArgument)
	assert.ErrorIs(t, engine.SetMaxIterations(0), positioning.ErrInvalidArgument)
}

// recordingListener counts callbacks and captures the setter error produced
// while the engine is locked.
type recordingListener struct {
	engine *Engine

	starts     int
	ends       int
	iterations int
	progress   []float64
	lockedErr  error
}

func (l *recordingListener) EstimateStart() {
	l.starts++
	if l.engine != nil {
		l.lockedErr = l.engine.SetThreshold(2.0)
	}
}

func (l *recordingListener) EstimateEnd() {
	l.ends++
}

func (l *recordingListener) IterationComplete(iteration int) {
	l.iterations = iteration
}

func (l *recordingListener) ProgressChange(progress float64) {
	l.progress = append(l.progress, progress)
}

func TestEngineListenerAndLocking(t *testing.T) {
	engine := NewEngine(LMedS)
	require.NoError(t, engine.SetMaxIterations(100))
	require.NoError(t, engine.SetSeed(9))

	listener := &recordingListener{engine: engine}
	require.NoError(t, engine.SetListener(listener))
	assert.False(t, engine.Locked())

	result, err := engine.Estimate(contaminatedProblem())
	require.NoError(t, err)

	assert.Equal(t, 1, listener.starts)
	assert.Equal(t, 1, listener.ends)
	assert.Equal(t, result.Iterations, listener.iterations)
	assert.ErrorIs(t, listener.lockedErr, positioning.ErrLocked)
	assert.False(t, engine.Locked())

	// Configuration works again once the run has finished.
	assert.NoError(t, engine.SetThreshold(2.0))

	require.NotEmpty(t, listener.progress)
	previous := 0.0
	for _, p := range listener.progress {
		assert.Greater(t, p, previous)
		assert.LessOrEqual(t, p, 1.0)
		previous = p
	}
}
