package positioning

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Point is a position in 2 or 3 dimensional space, in metres.
type Point []float64

func NewPoint2D(x, y float64) Point {
	return Point{x, y}
}

func NewPoint3D(x, y, z float64) Point {
	return Point{x, y, z}
}

func (p Point) Dimension() int {
	return len(p)
}

func (p Point) X() float64 {
	return p[0]
}

func (p Point) Y() float64 {
	return p[1]
}

// Z returns the third coordinate and panics for 2D points.
func (p Point) Z() float64 {
	return p[2]
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return floats.Distance(p, q, 2)
}

// NormSq returns the squared Euclidean norm of p.
func (p Point) NormSq() float64 {
	return floats.Dot(p, p)
}

func (p Point) Clone() Point {
	out := make(Point, len(p))
	copy(out, p)
	return out
}

func (p Point) String() string {
	if len(p) == 3 {
		return fmt.Sprintf("(%.3f, %.3f, %.3f)", p[0], p[1], p[2])
	}
	return fmt.Sprintf("(%.3f, %.3f)", p[0], p[1])
}
