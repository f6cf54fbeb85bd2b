// Package lateration solves the multilateration position equations with
// linear least squares, in two formulations.
package lateration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gps-no-locate/internal/positioning"
)

type Formulation string

const (
	// Inhomogeneous subtracts a reference anchor's sphere equation and
	// solves the resulting overdetermined system by QR least squares.
	Inhomogeneous Formulation = "INHOMOGENEOUS"

	// Homogeneous solves the same rows as an augmented homogeneous system
	// through the SVD null-space vector.
	Homogeneous Formulation = "HOMOGENEOUS"
)

func ParseFormulation(s string) (Formulation, error) {
	switch Formulation(s) {
	case Inhomogeneous, Homogeneous:
		return Formulation(s), nil
	default:
		return "", fmt.Errorf("%w: unknown formulation %q", positioning.ErrInvalidArgument, s)
	}
}

// Solution is a solved position with its quality figures.
type Solution struct {
	Position positioning.Point

	// Covariance is s²(AᵀA)⁻¹ with the residual variance estimated from the
	// redundant rows; nil when the system was exactly determined.
	Covariance *mat.SymDense

	// RMS is the root mean square of the linear system residual.
	RMS float64
}

// MinAnchors is the smallest number of distance measurements that determines
// a position in the given dimension with the linearized formulations.
func MinAnchors(dim int) int {
	return dim + 1
}

// Solve estimates the position implied by anchor positions and measured
// distances. stdDevs may be nil; when present each equation row is weighted
// by the reciprocal standard deviation of its measurement.
func Solve(positions []positioning.Point, distances, stdDevs []float64, formulation Formulation) (*Solution, error) {
	dim, err := validate(positions, distances, stdDevs)
	if err != nil {
		return nil, err
	}

	a, b := assemble(positions, distances, stdDevs, dim)

	var x *mat.VecDense
	switch formulation {
	case Homogeneous:
		x, err = solveHomogeneous(a, b, dim)
	default:
		x, err = solveInhomogeneous(a, b)
	}
	if err != nil {
		return nil, err
	}

	position := make(positioning.Point, dim)
	for j := 0; j < dim; j++ {
		position[j] = x.AtVec(j)
	}

	solution := &Solution{Position: position}
	solution.RMS = residualRMS(a, b, x)
	solution.Covariance = covariance(a, b, x, dim)
	return solution, nil
}

func validate(positions []positioning.Point, distances, stdDevs []float64) (int, error) {
	if len(positions) == 0 {
		return 0, fmt.Errorf("%w: no anchors", positioning.ErrInvalidArgument)
	}
	if len(positions) != len(distances) {
		return 0, fmt.Errorf("%w: %d anchors but %d distances",
			positioning.ErrInvalidArgument, len(positions), len(distances))
	}
	if stdDevs != nil && len(stdDevs) != len(distances) {
		return 0, fmt.Errorf("%w: %d distances but %d standard deviations",
			positioning.ErrInvalidArgument, len(distances), len(stdDevs))
	}

	dim := positions[0].Dimension()
	if dim != 2 && dim != 3 {
		return 0, fmt.Errorf("%w: anchors must be 2D or 3D, got %d components",
			positioning.ErrInvalidArgument, dim)
	}
	if len(positions) < MinAnchors(dim) {
		return 0, fmt.Errorf("%w: got %d measurements, need at least %d in %dD",
			positioning.ErrNotReady, len(positions), MinAnchors(dim), dim)
	}

	for i, p := range positions {
		if p.Dimension() != dim {
			return 0, fmt.Errorf("%w: anchor %d has %d components, expected %d",
				positioning.ErrInvalidArgument, i, p.Dimension(), dim)
		}
	}
	for i, d := range distances {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, fmt.Errorf("%w: distance %d is %f", positioning.ErrInvalidArgument, i, d)
		}
	}
	for i, s := range stdDevs {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, fmt.Errorf("%w: standard deviation %d is %f", positioning.ErrInvalidArgument, i, s)
		}
	}
	return dim, nil
}

// assemble linearizes the sphere equations against the first anchor:
//
//	2(p_i - p_0)ᵀ x = d_0² - d_i² + ‖p_i‖² - ‖p_0‖²   for i = 1..m-1
func assemble(positions []positioning.Point, distances, stdDevs []float64, dim int) (*mat.Dense, *mat.VecDense) {
	ref := positions[0]
	refDistSq := distances[0] * distances[0]
	refNormSq := ref.NormSq()

	rows := len(positions) - 1
	a := mat.NewDense(rows, dim, nil)
	b := mat.NewVecDense(rows, nil)

	for i := 1; i < len(positions); i++ {
		row := i - 1
		weight := 1.0
		if stdDevs != nil {
			weight = 1.0 / stdDevs[i]
		}
		for j := 0; j < dim; j++ {
			a.Set(row, j, weight*2*(positions[i][j]-ref[j]))
		}
		b.SetVec(row, weight*(refDistSq-distances[i]*distances[i]+positions[i].NormSq()-refNormSq))
	}
	return a, b
}

func solveInhomogeneous(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	var qr mat.QR
	qr.Factorize(a)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", positioning.ErrDegenerateGeometry, err)
	}
	return &x, nil
}

func solveHomogeneous(a *mat.Dense, b *mat.VecDense, dim int) (*mat.VecDense, error) {
	rows, _ := a.Dims()

	m := mat.NewDense(rows, dim+1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			m.Set(i, j, a.At(i, j))
		}
		m.Set(i, dim, -b.AtVec(i))
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFullV); !ok {
		return nil, fmt.Errorf("%w: svd factorization failed", positioning.ErrDegenerateGeometry)
	}

	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()

	// Right singular vector of the smallest singular value.
	last := cols - 1
	scale := v.At(dim, last)
	if math.Abs(scale) < 1e-12 {
		return nil, fmt.Errorf("%w: homogeneous solution at infinity", positioning.ErrDegenerateGeometry)
	}

	x := mat.NewVecDense(dim, nil)
	for j := 0; j < dim; j++ {
		x.SetVec(j, v.At(j, last)/scale)
	}
	return x, nil
}

func residualRMS(a *mat.Dense, b, x *mat.VecDense) float64 {
	rows, _ := a.Dims()

	var r mat.VecDense
	r.MulVec(a, x)
	r.SubVec(b, &r)
	return mat.Norm(&r, 2) / math.Sqrt(float64(rows))
}

func covariance(a *mat.Dense, b, x *mat.VecDense, dim int) *mat.SymDense {
	rows, _ := a.Dims()
	dof := rows - dim
	if dof <= 0 {
		return nil
	}

	var r mat.VecDense
	r.MulVec(a, x)
	r.SubVec(b, &r)
	variance := mat.Dot(&r, &r) / float64(dof)

	var ata mat.SymDense
	ata.SymOuterK(1, a.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&ata); !ok {
		return nil
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil
	}

	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, variance*inv.At(i, j))
		}
	}
	return cov
}
