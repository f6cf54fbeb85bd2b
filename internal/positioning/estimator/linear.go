package estimator

import (
	"fmt"
	"time"

	"gps-no-locate/internal/positioning"
	"gps-no-locate/internal/positioning/lateration"
)

// Linear estimates a position from all usable measurements in one least
// squares solve, without outlier rejection.
type Linear struct {
	lockable

	dim         int
	sources     []*positioning.RadioSource
	fingerprint *positioning.Fingerprint
	formulation lateration.Formulation
	weighted    bool
	listener    Listener
}

func NewLinear2D(sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Linear, error) {
	return newLinear(2, sources, fingerprint)
}

func NewLinear3D(sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Linear, error) {
	return newLinear(3, sources, fingerprint)
}

func newLinear(dim int, sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Linear, error) {
	if err := validateSources(dim, sources); err != nil {
		return nil, err
	}
	if err := validateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	return &Linear{
		dim:         dim,
		sources:     sources,
		fingerprint: fingerprint,
		formulation: lateration.Inhomogeneous,
	}, nil
}

func (l *Linear) Dimension() int {
	return l.dim
}

// MinMeasurements is the number of usable distance measurements Estimate
// requires.
func (l *Linear) MinMeasurements() int {
	return lateration.MinAnchors(l.dim)
}

func (l *Linear) SetSources(sources []*positioning.RadioSource) error {
	if err := validateSources(l.dim, sources); err != nil {
		return err
	}
	return l.setConfig(func() { l.sources = sources })
}

func (l *Linear) SetFingerprint(fingerprint *positioning.Fingerprint) error {
	if err := validateFingerprint(fingerprint); err != nil {
		return err
	}
	return l.setConfig(func() { l.fingerprint = fingerprint })
}

func (l *Linear) SetFormulation(formulation lateration.Formulation) error {
	return l.setConfig(func() { l.formulation = formulation })
}

// SetWeighted enables weighting each measurement by its reciprocal standard
// deviation.
func (l *Linear) SetWeighted(weighted bool) error {
	return l.setConfig(func() { l.weighted = weighted })
}

func (l *Linear) SetListener(listener Listener) error {
	return l.setConfig(func() { l.listener = listener })
}

func (l *Linear) Ready() bool {
	return len(l.sources) >= l.MinMeasurements() && l.fingerprint != nil && l.fingerprint.Size() > 0
}

// Estimate solves for the position. The estimator is locked for the
// duration; concurrent configuration attempts fail with ErrLocked.
func (l *Linear) Estimate() (*positioning.Estimate, error) {
	if err := l.acquire(); err != nil {
		return nil, err
	}
	defer l.release()

	if l.listener != nil {
		l.listener.EstimateStart()
		defer l.listener.EstimateEnd()
	}

	positions, distances, stdDevs, err := positioning.BuildPositionsDistancesAndStdDevs(l.sources, l.fingerprint)
	if err != nil {
		return nil, err
	}
	if len(positions) < l.MinMeasurements() {
		return nil, fmt.Errorf("%w: %d usable measurements, need %d",
			positioning.ErrNotReady, len(positions), l.MinMeasurements())
	}

	if !l.weighted {
		stdDevs = nil
	}
	solution, err := lateration.Solve(positions, distances, stdDevs, l.formulation)
	if err != nil {
		return nil, err
	}

	return &positioning.Estimate{
		Position:     solution.Position,
		Covariance:   solution.Covariance,
		RMS:          solution.RMS,
		Inliers:      len(positions),
		Measurements: len(positions),
		EstimatedAt:  time.Now(),
	}, nil
}
