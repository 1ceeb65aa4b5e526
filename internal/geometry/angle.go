// Package geometry provides the 2D vector math used to measure body angles.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerate is returned when an angle cannot be measured, either because one
// of the vectors has zero length or because rounding pushed the cosine outside
// the acos domain.
var ErrDegenerate = errors.New("degenerate angle")

// Angle returns the unsigned angle in radians, within [0, π], between v1 and v2.
//
// The cosine is computed as v1·v2 / sqrt(|v1|²|v2|²) so that the result is exact
// for parallel and orthogonal integer vectors.
func Angle(v1, v2 image.Point) (float64, error) {
	if v1 == (image.Point{}) || v2 == (image.Point{}) {
		return 0, fmt.Errorf("%w: zero vector in v1=%v v2=%v", ErrDegenerate, v1, v2)
	}

	a := toVec(v1)
	b := toVec(v2)

	dot := r2.Dot(a, b)
	cos := dot / math.Sqrt(r2.Norm2(a)*r2.Norm2(b))
	if math.IsNaN(cos) || math.Abs(cos) > 1 {
		return 0, fmt.Errorf("%w: cosine %v outside [-1, 1] for v1=%v v2=%v (v1·v2=%v, |v1|=%v, |v2|=%v)",
			ErrDegenerate, cos, v1, v2, dot, r2.Norm(a), r2.Norm(b))
	}

	return math.Acos(cos), nil
}

// Degrees converts an angle in degrees to radians.
func Degrees(deg float64) float64 {
	return deg * math.Pi / 180
}

func toVec(p image.Point) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}
