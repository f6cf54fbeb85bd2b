package positioning

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Estimate is the result of one position estimation.
type Estimate struct {
	Position Point

	// Covariance is the propagated position covariance, nil when the solve
	// had no redundant measurements to derive it from.
	Covariance *mat.SymDense

	// RMS is the root mean square of the distance residuals over the
	// measurements that produced the position.
	RMS float64

	// Inliers is the size of the consensus set for robust estimations and
	// equals Measurements for linear ones.
	Inliers      int
	Measurements int

	EstimatedAt time.Time
}
