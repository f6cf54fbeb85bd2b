package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gps-no-locate/internal/positioning"
	"gps-no-locate/internal/positioning/robust"
)

func robustLayout2D() []positioning.Point {
	return []positioning.Point{
		positioning.NewPoint2D(0, 0),
		positioning.NewPoint2D(10, 0),
		positioning.NewPoint2D(0, 10),
		positioning.NewPoint2D(10, 10),
		positioning.NewPoint2D(4, 13),
		positioning.NewPoint2D(13, 5),
	}
}

// outlierFingerprint reports exact distances except for the last source,
// whose measurement is off by five metres.
func outlierFingerprint(t *testing.T, sources []*positioning.RadioSource, target positioning.Point) *positioning.Fingerprint {
	t.Helper()
	readings := make([]*positioning.Reading, len(sources))
	for i, source := range sources {
		distance := source.Position.DistanceTo(target)
		if i == len(sources)-1 {
			distance += 5
		}
		reading, err := positioning.NewRangingReading(source.MacAddress, distance)
		require.NoError(t, err)
		readings[i] = reading
	}
	fingerprint, err := positioning.NewFingerprint(readings)
	require.NoError(t, err)
	return fingerprint
}

func TestRobustEstimateRejectsOutlier(t *testing.T) {
	target := positioning.NewPoint2D(3.7, 4.1)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := outlierFingerprint(t, sources, target)

	// The corrupted source gets a low quality score for the progressive
	// methods.
	scores := []float64{1, 1, 1, 1, 1, 0.1}

	for _, method := range []robust.Method{robust.RANSAC, robust.LMedS, robust.MSAC, robust.PROSAC, robust.PROMedS} {
		t.Run(string(method), func(t *testing.T) {
			robustEstimator, err := NewRobust2D(method, sources, fingerprint)
			require.NoError(t, err)
			require.NoError(t, robustEstimator.SetThreshold(0.5))
			require.NoError(t, robustEstimator.SetMaxIterations(500))
			require.NoError(t, robustEstimator.SetSeed(42))
			if method.UsesQualityScores() {
				require.NoError(t, robustEstimator.SetQualityScores(scores))
			}
			assert.True(t, robustEstimator.Ready())

			estimate, err := robustEstimator.Estimate()
			require.NoError(t, err)

			assert.InDelta(t, target.X(), estimate.Position.X(), 1e-6)
			assert.InDelta(t, target.Y(), estimate.Position.Y(), 1e-6)
			assert.Equal(t, 6, estimate.Measurements)
			assert.Equal(t, 5, estimate.Inliers)
			assert.NotNil(t, estimate.Covariance)
			assert.InDelta(t, 0, estimate.RMS, 1e-6)
		})
	}
}

func TestRobustEstimateWeighted(t *testing.T) {
	target := positioning.NewPoint2D(5.5, 6.5)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := outlierFingerprint(t, sources, target)

	robustEstimator, err := NewRobust2D(robust.RANSAC, sources, fingerprint)
	require.NoError(t, err)
	require.NoError(t, robustEstimator.SetThreshold(0.5))
	require.NoError(t, robustEstimator.SetWeighted(true))
	require.NoError(t, robustEstimator.SetSeed(7))

	estimate, err := robustEstimator.Estimate()
	require.NoError(t, err)
	assert.InDelta(t, target.X(), estimate.Position.X(), 1e-6)
	assert.InDelta(t, target.Y(), estimate.Position.Y(), 1e-6)
}

func TestRobustConstructionValidation(t *testing.T) {
	target := positioning.NewPoint2D(1, 1)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := rangingFingerprint(t, sources, target)

	_, err := NewRobust2D(robust.Method("FOO"), sources, fingerprint)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = NewRobust2D(robust.RANSAC, sources[:2], fingerprint)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = NewRobust2D(robust.RANSAC, sources, nil)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)
}

func TestRobustQualityScores(t *testing.T) {
	target := positioning.NewPoint2D(2, 2)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := rangingFingerprint(t, sources, target)

	robustEstimator, err := NewRobust2D(robust.PROSAC, sources, fingerprint)
	require.NoError(t, err)

	// One score per source is mandatory.
	err = robustEstimator.SetQualityScores([]float64{1, 1})
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	// Without scores a progressive method cannot run.
	assert.False(t, robustEstimator.Ready())
	_, err = robustEstimator.Estimate()
	assert.ErrorIs(t, err, positioning.ErrNotReady)

	require.NoError(t, robustEstimator.SetQualityScores([]float64{1, 1, 1, 1, 1, 1}))
	assert.True(t, robustEstimator.Ready())

	estimate, err := robustEstimator.Estimate()
	require.NoError(t, err)
	assert.InDelta(t, target.X(), estimate.Position.X(), 1e-6)
	assert.InDelta(t, target.Y(), estimate.Position.Y(), 1e-6)
}

func TestRobustLockedDuringEstimate(t *testing.T) {
	target := positioning.NewPoint2D(2, 3)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := rangingFingerprint(t, sources, target)

	robustEstimator, err := NewRobust2D(robust.MSAC, sources, fingerprint)
	require.NoError(t, err)
	require.NoError(t, robustEstimator.SetSeed(3))

	listener := &lockProbeListener{reconfigure: func() error { return robustEstimator.SetThreshold(2.0) }}
	require.NoError(t, robustEstimator.SetListener(listener))

	_, err = robustEstimator.Estimate()
	require.NoError(t, err)

	assert.Equal(t, 1, listener.starts)
	assert.Equal(t, 1, listener.ends)
	assert.ErrorIs(t, listener.lockedErr, positioning.ErrLocked)
	assert.False(t, robustEstimator.Locked())
	assert.NoError(t, robustEstimator.SetThreshold(2.0))
}

func TestConsensusRMS(t *testing.T) {
	problem := &laterationProblem{
		positions: []positioning.Point{
			positioning.NewPoint2D(3, 0),
			positioning.NewPoint2D(0, 4),
		},
		distances: []float64{1, 2},
		dim:       2,
	}
	model := []float64{0, 0}

	// Residuals against the origin are |3-1| and |4-2|.
	assert.InDelta(t, 2.0, consensusRMS(problem, model, []int{0, 1}), 1e-12)
	assert.Equal(t, 0.0, consensusRMS(problem, model, nil))
}

func TestRobustMethodAccessor(t *testing.T) {
	target := positioning.NewPoint2D(2, 3)
	sources := sources2D(t, robustLayout2D()...)
	fingerprint := rangingFingerprint(t, sources, target)

	// 2D sources do not fit a 3D estimator.
	_, err := NewRobust3D(robust.LMedS, sources, fingerprint)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	estimator2D, err := NewRobust2D(robust.LMedS, sources, fingerprint)
	require.NoError(t, err)
	assert.Equal(t, robust.LMedS, estimator2D.Method())
	assert.Equal(t, 2, estimator2D.Dimension())
	assert.Equal(t, 3, estimator2D.MinMeasurements())
}
