package robust

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gps-no-locate/internal/positioning"
)

// Problem exposes a measurement set to the consensus engine. Models are
// opaque parameter vectors; the engine only fits them from index subsets and
// evaluates per-sample residuals against them.
type Problem interface {
	NumSamples() int
	SubsetSize() int
	Fit(indices []int) ([]float64, error)
	Residual(model []float64, sample int) float64
}

const (
	DefaultThreshold     = 1.0
	DefaultConfidence    = 0.99
	DefaultMaxIterations = 5000

	progressStep = 0.05

	// LMedS robust scale constants (consistency factor for the normal
	// distribution and the inlier cutoff in scale units).
	lmedsScaleFactor  = 1.4826
	lmedsInlierFactor = 2.5
	lmedsMinThreshold = 1e-6
)

// Engine runs one of the RANSAC-family methods. An engine instance runs a
// single estimation at a time; configuration setters fail with ErrLocked
// while Estimate is in progress.
type Engine struct {
	mu     sync.Mutex
	locked bool

	method        Method
	threshold     float64
	confidence    float64
	maxIterations int
	refine        bool
	qualityScores []float64
	listener      Listener
	seed          int64
	seeded        bool
}

func NewEngine(method Method) *Engine {
	return &Engine{
		method:        method,
		threshold:     DefaultThreshold,
		confidence:    DefaultConfidence,
		maxIterations: DefaultMaxIterations,
		refine:        true,
	}
}

// Result is the best consensus found by Estimate.
type Result struct {
	Model   []float64
	Inliers []int

	// Score is the method-specific consensus score of the model (lower is
	// better): outlier count for RANSAC/PROSAC, truncated quadratic loss for
	// MSAC, median squared residual for LMedS/PROMedS.
	Score float64

	// Threshold is the effective inlier threshold: the configured one, or
	// for the median-scored methods the one derived from the robust scale.
	Threshold float64

	Iterations int
}

func (e *Engine) Method() Method {
	return e.method
}

func (e *Engine) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

// SetThreshold sets the residual threshold separating inliers from outliers
// for the fixed-threshold methods.
func (e *Engine) SetThreshold(threshold float64) error {
	if threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %f", positioning.ErrInvalidArgument, threshold)
	}
	return e.setConfig(func() { e.threshold = threshold })
}

func (e *Engine) SetConfidence(confidence float64) error {
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %f", positioning.ErrInvalidArgument, confidence)
	}
	return e.setConfig(func() { e.confidence = confidence })
}

func (e *Engine) SetMaxIterations(maxIterations int) error {
	if maxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", positioning.ErrInvalidArgument, maxIterations)
	}
	return e.setConfig(func() { e.maxIterations = maxIterations })
}

// SetRefineResult controls whether the final model is re-fit on the full
// consensus set.
func (e *Engine) SetRefineResult(refine bool) error {
	return e.setConfig(func() { e.refine = refine })
}

// SetQualityScores supplies per-sample quality scores (higher is better) for
// the progressive methods. Must match the problem's sample count at
// estimation time.
func (e *Engine) SetQualityScores(scores []float64) error {
	copied := append([]float64(nil), scores...)
	return e.setConfig(func() { e.qualityScores = copied })
}

func (e *Engine) SetListener(listener Listener) error {
	return e.setConfig(func() { e.listener = listener })
}

// SetSeed fixes the sampling sequence, for reproducible runs.
func (e *Engine) SetSeed(seed int64) error {
	return e.setConfig(func() { e.seed = seed; e.seeded = true })
}

func (e *Engine) setConfig(apply func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return positioning.ErrLocked
	}
	apply()
	return nil
}

// Estimate runs the configured method against the problem.
func (e *Engine) Estimate(problem Problem) (*Result, error) {
	if problem == nil {
		return nil, fmt.Errorf("%w: nil problem", positioning.ErrNotReady)
	}

	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return nil, positioning.ErrLocked
	}
	e.locked = true
	cfg := struct {
		method        Method
		threshold     float64
		confidence    float64
		maxIterations int
		refine        bool
		qualityScores []float64
		listener      Listener
		seed          int64
		seeded        bool
	}{e.method, e.threshold, e.confidence, e.maxIterations, e.refine, e.qualityScores, e.listener, e.seed, e.seeded}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.locked = false
		e.mu.Unlock()
	}()

	n := problem.NumSamples()
	s := problem.SubsetSize()
	if s < 1 || n < s {
		return nil, fmt.Errorf("%w: %d samples, minimal subset is %d", positioning.ErrNotReady, n, s)
	}
	if cfg.method.UsesQualityScores() && len(cfg.qualityScores) != n {
		return nil, fmt.Errorf("%w: %s needs %d quality scores, got %d",
			positioning.ErrNotReady, cfg.method, n, len(cfg.qualityScores))
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var order []int
	if cfg.method.UsesQualityScores() {
		order = rankByScore(cfg.qualityScores)
	}

	if cfg.listener != nil {
		cfg.listener.EstimateStart()
		defer cfg.listener.EstimateEnd()
	}

	bound := cfg.maxIterations
	bestScore := math.Inf(1)
	var bestModel []float64
	scratch := make([]float64, n)
	lastProgress := 0.0
	iterations := 0

	for it := 0; it < bound; it++ {
		iterations = it + 1

		subset := e.sample(rng, order, n, s, it, cfg.maxIterations)
		model, err := problem.Fit(subset)
		if err == nil {
			score, inlierCount := e.scoreModel(cfg.method, cfg.threshold, problem, model, scratch)
			if score < bestScore {
				bestScore = score
				bestModel = model

				if !cfg.method.usesMedianScore() && inlierCount > 0 {
					bound = adaptiveBound(bound, it, inlierCount, n, s, cfg.confidence)
				}
			}
		}

		if cfg.listener != nil {
			cfg.listener.IterationComplete(iterations)
			progress := float64(iterations) / float64(bound)
			if progress-lastProgress >= progressStep {
				lastProgress = progress
				cfg.listener.ProgressChange(progress)
			}
		}
	}

	if bestModel == nil {
		return nil, fmt.Errorf("%w: no model could be fit in %d iterations", positioning.ErrRobustFailed, iterations)
	}

	threshold := cfg.threshold
	if cfg.method.usesMedianScore() {
		threshold = lmedsThreshold(bestScore, n, s)
	}

	inliers := collectInliers(problem, bestModel, threshold, n)
	if len(inliers) < s {
		return nil, fmt.Errorf("%w: consensus of %d below minimal subset %d", positioning.ErrRobustFailed, len(inliers), s)
	}

	if cfg.refine && len(inliers) > s {
		if refined, err := problem.Fit(inliers); err == nil {
			refinedInliers := collectInliers(problem, refined, threshold, n)
			if len(refinedInliers) >= len(inliers) {
				bestModel = refined
				inliers = refinedInliers
			}
		}
	}

	return &Result{
		Model:      bestModel,
		Inliers:    inliers,
		Score:      bestScore,
		Threshold:  threshold,
		Iterations: iterations,
	}, nil
}

func (e *Engine) scoreModel(method Method, threshold float64, problem Problem, model []float64, scratch []float64) (float64, int) {
	n := problem.NumSamples()

	if method.usesMedianScore() {
		for i := 0; i < n; i++ {
			r := problem.Residual(model, i)
			scratch[i] = r * r
		}
		return median(scratch), 0
	}

	inlierCount := 0
	loss := 0.0
	thresholdSq := threshold * threshold
	for i := 0; i < n; i++ {
		r := problem.Residual(model, i)
		rSq := r * r
		if r <= threshold {
			inlierCount++
			loss += rSq
		} else {
			loss += thresholdSq
		}
	}

	if method == MSAC {
		return loss, inlierCount
	}
	// RANSAC and PROSAC maximize the consensus size.
	return float64(n - inlierCount), inlierCount
}

// sample draws a minimal subset. The progressive methods draw from a pool of
// the top-ranked samples that grows as iterations accumulate; the others
// sample uniformly.
func (e *Engine) sample(rng *rand.Rand, order []int, n, s, iteration, maxIterations int) []int {
	if order == nil {
		return rng.Perm(n)[:s]
	}

	growth := maxIterations / (2 * (n - s + 1))
	if growth < 1 {
		growth = 1
	}
	poolSize := s + iteration/growth
	if poolSize > n {
		poolSize = n
	}

	subset := make([]int, s)
	for i, j := range rng.Perm(poolSize)[:s] {
		subset[i] = order[j]
	}
	return subset
}

func adaptiveBound(bound, iteration, inlierCount, n, s int, confidence float64) int {
	w := float64(inlierCount) / float64(n)
	wPow := math.Pow(w, float64(s))
	if wPow >= 1 {
		return iteration + 1
	}
	if wPow <= 0 {
		return bound
	}

	needed := int(math.Ceil(math.Log(1-confidence) / math.Log(1-wPow)))
	if needed < iteration+1 {
		needed = iteration + 1
	}
	if needed < bound {
		return needed
	}
	return bound
}

func lmedsThreshold(medianSq float64, n, s int) float64 {
	factor := lmedsScaleFactor
	if n > s {
		factor *= 1 + 5/float64(n-s)
	}
	threshold := lmedsInlierFactor * factor * math.Sqrt(medianSq)
	if threshold < lmedsMinThreshold {
		threshold = lmedsMinThreshold
	}
	return threshold
}

func collectInliers(problem Problem, model []float64, threshold float64, n int) []int {
	var inliers []int
	for i := 0; i < n; i++ {
		if problem.Residual(model, i) <= threshold {
			inliers = append(inliers, i)
		}
	}
	return inliers
}

func rankByScore(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
