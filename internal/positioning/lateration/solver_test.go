package lateration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gps-no-locate/internal/positioning"
)

func anchors2D() []positioning.Point {
	return []positioning.Point{
		positioning.NewPoint2D(0, 0),
		positioning.NewPoint2D(10, 0),
		positioning.NewPoint2D(0, 10),
		positioning.NewPoint2D(10, 10),
		positioning.NewPoint2D(5, 12),
	}
}

func anchors3D() []positioning.Point {
	return []positioning.Point{
		positioning.NewPoint3D(0, 0, 0),
		positioning.NewPoint3D(10, 0, 0),
		positioning.NewPoint3D(0, 10, 0),
		positioning.NewPoint3D(0, 0, 10),
		positioning.NewPoint3D(10, 10, 3),
		positioning.NewPoint3D(3, 7, 9),
	}
}

func exactDistances(anchors []positioning.Point, target positioning.Point) []float64 {
	distances := make([]float64, len(anchors))
	for i, anchor := range anchors {
		distances[i] = anchor.DistanceTo(target)
	}
	return distances
}

func TestSolveRecoversPosition(t *testing.T) {
	cases := []struct {
		name    string
		anchors []positioning.Point
		target  positioning.Point
	}{
		{"2d", anchors2D(), positioning.NewPoint2D(3.2, 4.7)},
		{"3d", anchors3D(), positioning.NewPoint3D(3.2, 4.7, 1.4)},
	}

	for _, tc := range cases {
		for _, formulation := range []Formulation{Inhomogeneous, Homogeneous} {
			t.Run(tc.name+"/"+string(formulation), func(t *testing.T) {
				distances := exactDistances(tc.anchors, tc.target)

				solution, err := Solve(tc.anchors, distances, nil, formulation)
				require.NoError(t, err)
				require.Equal(t, tc.target.Dimension(), solution.Position.Dimension())

				for j := range tc.target {
					assert.InDelta(t, tc.target[j], solution.Position[j], 1e-6)
				}
				assert.InDelta(t, 0, solution.RMS, 1e-6)
			})
		}
	}
}

func TestSolveWeighted(t *testing.T) {
	anchors := anchors2D()
	target := positioning.NewPoint2D(6.1, 2.9)
	distances := exactDistances(anchors, target)

	// Corrupt one measurement and downweight it heavily. The solution should
	// stay close to the truth.
	distances[3] += 2.0
	stdDevs := []float64{0.1, 0.1, 0.1, 100.0, 0.1}

	solution, err := Solve(anchors, distances, stdDevs, Inhomogeneous)
	require.NoError(t, err)
	assert.InDelta(t, target.X(), solution.Position.X(), 0.05)
	assert.InDelta(t, target.Y(), solution.Position.Y(), 0.05)
}

func TestSolveCovariance(t *testing.T) {
	anchors := anchors2D()
	target := positioning.NewPoint2D(3, 3)
	distances := exactDistances(anchors, target)

	// Five anchors give redundancy in 2D, so a covariance is produced.
	solution, err := Solve(anchors, distances, nil, Inhomogeneous)
	require.NoError(t, err)
	require.NotNil(t, solution.Covariance)
	rows, cols := solution.Covariance.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.GreaterOrEqual(t, solution.Covariance.At(0, 0), 0.0)
	assert.GreaterOrEqual(t, solution.Covariance.At(1, 1), 0.0)

	// The minimal configuration is exactly determined and carries no
	// covariance.
	minimal := anchors[:3]
	solution, err = Solve(minimal, exactDistances(minimal, target), nil, Inhomogeneous)
	require.NoError(t, err)
	assert.Nil(t, solution.Covariance)
}

func TestSolveValidation(t *testing.T) {
	anchors := anchors2D()
	target := positioning.NewPoint2D(3, 3)
	distances := exactDistances(anchors, target)

	_, err := Solve(nil, nil, nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = Solve(anchors, distances[:3], nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = Solve(anchors, distances, []float64{1, 1}, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = Solve(anchors[:2], distances[:2], nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrNotReady)

	bad := append([]float64(nil), distances...)
	bad[1] = -1
	_, err = Solve(anchors, bad, nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	bad[1] = math.Inf(1)
	_, err = Solve(anchors, bad, nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = Solve(anchors, distances, []float64{1, 1, math.NaN(), 1, 1}, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	_, err = Solve(anchors, distances, []float64{1, 1, math.Inf(1), 1, 1}, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)

	mixed := []positioning.Point{
		positioning.NewPoint2D(0, 0),
		positioning.NewPoint3D(1, 2, 3),
		positioning.NewPoint2D(4, 5),
	}
	_, err = Solve(mixed, []float64{1, 2, 3}, nil, Inhomogeneous)
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)
}

func TestSolveDegenerateGeometry(t *testing.T) {
	// Collinear anchors cannot fix a 2D position.
	collinear := []positioning.Point{
		positioning.NewPoint2D(0, 0),
		positioning.NewPoint2D(1, 0),
		positioning.NewPoint2D(2, 0),
		positioning.NewPoint2D(3, 0),
	}
	distances := []float64{1, math.Sqrt2, math.Sqrt(5), math.Sqrt(10)}

	_, err := Solve(collinear, distances, nil, Inhomogeneous)
	require.Error(t, err)
	assert.ErrorIs(t, err, positioning.ErrDegenerateGeometry)
}

func TestParseFormulation(t *testing.T) {
	formulation, err := ParseFormulation("INHOMOGENEOUS")
	require.NoError(t, err)
	assert.Equal(t, Inhomogeneous, formulation)

	formulation, err = ParseFormulation("HOMOGENEOUS")
	require.NoError(t, err)
	assert.Equal(t, Homogeneous, formulation)

	_, err = ParseFormulation("NONLINEAR")
	assert.ErrorIs(t, err, positioning.ErrInvalidArgument)
}

func TestMinAnchors(t *testing.T) {
	assert.Equal(t, 3, MinAnchors(2))
	assert.Equal(t, 4, MinAnchors(3))
}
