package estimator

import (
	"fmt"
	"math"
	"time"

	"gps-no-locate/internal/positioning"
	"gps-no-locate/internal/positioning/lateration"
	"gps-no-locate/internal/positioning/robust"
)

// Robust estimates a position through one of the sample-consensus methods,
// tolerating outlier readings. Quality scores are per source and are spread
// onto the measurements each source contributed.
type Robust struct {
	lockable

	dim         int
	engine      *robust.Engine
	sources     []*positioning.RadioSource
	fingerprint *positioning.Fingerprint
	formulation lateration.Formulation
	weighted    bool

	sourceQualityScores []float64
	listener            Listener
}

func NewRobust2D(method robust.Method, sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Robust, error) {
	return newRobust(2, method, sources, fingerprint)
}

func NewRobust3D(method robust.Method, sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Robust, error) {
	return newRobust(3, method, sources, fingerprint)
}

func newRobust(dim int, method robust.Method, sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint) (*Robust, error) {
	if _, err := robust.ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if err := validateSources(dim, sources); err != nil {
		return nil, err
	}
	if err := validateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	return &Robust{
		dim:         dim,
		engine:      robust.NewEngine(method),
		sources:     sources,
		fingerprint: fingerprint,
		formulation: lateration.Inhomogeneous,
	}, nil
}

func (r *Robust) Dimension() int {
	return r.dim
}

func (r *Robust) Method() robust.Method {
	return r.engine.Method()
}

func (r *Robust) MinMeasurements() int {
	return lateration.MinAnchors(r.dim)
}

func (r *Robust) SetSources(sources []*positioning.RadioSource) error {
	if err := validateSources(r.dim, sources); err != nil {
		return err
	}
	return r.setConfig(func() {
		r.sources = sources
		r.sourceQualityScores = nil
	})
}

func (r *Robust) SetFingerprint(fingerprint *positioning.Fingerprint) error {
	if err := validateFingerprint(fingerprint); err != nil {
		return err
	}
	return r.setConfig(func() { r.fingerprint = fingerprint })
}

func (r *Robust) SetFormulation(formulation lateration.Formulation) error {
	return r.setConfig(func() { r.formulation = formulation })
}

func (r *Robust) SetWeighted(weighted bool) error {
	return r.setConfig(func() { r.weighted = weighted })
}

// SetQualityScores supplies one score per source, higher meaning more
// trusted. Required by the PROSAC and PROMedS methods.
func (r *Robust) SetQualityScores(scores []float64) error {
	if len(scores) != len(r.sources) {
		return fmt.Errorf("%w: got %d quality scores for %d sources",
			positioning.ErrInvalidArgument, len(scores), len(r.sources))
	}
	copied := append([]float64(nil), scores...)
	return r.setConfig(func() { r.sourceQualityScores = copied })
}

func (r *Robust) SetListener(listener Listener) error {
	return r.setConfig(func() { r.listener = listener })
}

// SetProgressListener forwards iteration and progress callbacks from the
// underlying consensus engine.
func (r *Robust) SetProgressListener(listener robust.Listener) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetListener(listener)
}

func (r *Robust) SetThreshold(threshold float64) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetThreshold(threshold)
}

func (r *Robust) SetConfidence(confidence float64) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetConfidence(confidence)
}

func (r *Robust) SetMaxIterations(maxIterations int) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetMaxIterations(maxIterations)
}

func (r *Robust) SetRefineResult(refine bool) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetRefineResult(refine)
}

func (r *Robust) SetSeed(seed int64) error {
	if r.Locked() {
		return positioning.ErrLocked
	}
	return r.engine.SetSeed(seed)
}

func (r *Robust) Ready() bool {
	if len(r.sources) < r.MinMeasurements() || r.fingerprint == nil || r.fingerprint.Size() == 0 {
		return false
	}
	if r.Method().UsesQualityScores() && len(r.sourceQualityScores) != len(r.sources) {
		return false
	}
	return true
}

// Estimate runs the consensus search and re-solves on the final consensus
// set to report covariance and residual quality.
func (r *Robust) Estimate() (*positioning.Estimate, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	if r.listener != nil {
		r.listener.EstimateStart()
		defer r.listener.EstimateEnd()
	}

	if r.Method().UsesQualityScores() && len(r.sourceQualityScores) != len(r.sources) {
		return nil, fmt.Errorf("%w: %s requires quality scores", positioning.ErrNotReady, r.Method())
	}

	scores := r.sourceQualityScores
	if scores == nil {
		scores = make([]float64, len(r.sources))
		for i := range scores {
			scores[i] = 1
		}
	}

	positions, distances, stdDevs, readingScores, err := positioning.BuildPositionsDistancesStdDevsAndQualityScores(r.sources, r.fingerprint, scores)
	if err != nil {
		return nil, err
	}
	if len(positions) < r.MinMeasurements() {
		return nil, fmt.Errorf("%w: %d usable measurements, need %d",
			positioning.ErrNotReady, len(positions), r.MinMeasurements())
	}

	problem := &laterationProblem{
		positions: positions,
		distances: distances,
		dim:       r.dim,
	}

	if r.Method().UsesQualityScores() {
		if err := r.engine.SetQualityScores(readingScores); err != nil {
			return nil, err
		}
	}

	result, err := r.engine.Estimate(problem)
	if err != nil {
		return nil, err
	}

	estimate := &positioning.Estimate{
		Position:     positioning.Point(result.Model),
		Inliers:      len(result.Inliers),
		Measurements: len(positions),
		EstimatedAt:  time.Now(),
	}

	// Final solve over the consensus set for covariance and residuals.
	inlierPositions := make([]positioning.Point, len(result.Inliers))
	inlierDistances := make([]float64, len(result.Inliers))
	var inlierStdDevs []float64
	if r.weighted {
		inlierStdDevs = make([]float64, len(result.Inliers))
	}
	for i, idx := range result.Inliers {
		inlierPositions[i] = positions[idx]
		inlierDistances[i] = distances[idx]
		if r.weighted {
			inlierStdDevs[i] = stdDevs[idx]
		}
	}
	solution, err := lateration.Solve(inlierPositions, inlierDistances, inlierStdDevs, r.formulation)
	if err != nil {
		// Keep the engine's model, but report its real residuals rather
		// than a perfect-looking zero RMS.
		estimate.RMS = consensusRMS(problem, result.Model, result.Inliers)
		return estimate, nil
	}
	estimate.Position = solution.Position
	estimate.Covariance = solution.Covariance
	estimate.RMS = solution.RMS

	return estimate, nil
}

// consensusRMS is the root mean square distance residual of a model over its
// consensus set.
func consensusRMS(problem robust.Problem, model []float64, inliers []int) float64 {
	if len(inliers) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range inliers {
		r := problem.Residual(model, idx)
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(inliers)))
}

// laterationProblem adapts the flattened measurements to the consensus
// engine. Minimal subsets are solved with the inhomogeneous formulation.
type laterationProblem struct {
	positions []positioning.Point
	distances []float64
	dim       int
}

func (p *laterationProblem) NumSamples() int {
	return len(p.distances)
}

func (p *laterationProblem) SubsetSize() int {
	return lateration.MinAnchors(p.dim)
}

func (p *laterationProblem) Fit(indices []int) ([]float64, error) {
	subsetPositions := make([]positioning.Point, len(indices))
	subsetDistances := make([]float64, len(indices))
	for i, idx := range indices {
		subsetPositions[i] = p.positions[idx]
		subsetDistances[i] = p.distances[idx]
	}
	solution, err := lateration.Solve(subsetPositions, subsetDistances, nil, lateration.Inhomogeneous)
	if err != nil {
		return nil, err
	}
	return solution.Position, nil
}

func (p *laterationProblem) Residual(model []float64, sample int) float64 {
	d := p.positions[sample].DistanceTo(positioning.Point(model))
	return math.Abs(d - p.distances[sample])
}
