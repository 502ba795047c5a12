// Package mat provides the 3x3 matrix and 3-vector primitives the color
// management core builds its RGB<->XYZ and chromatic adaptation math on.
//
// The arithmetic is delegated to gonum's general Dense matrix type so that
// inversion and multiplication are backed by a tested numerical library
// rather than hand-rolled cofactor expansion; Mat3 itself stays a fixed-size,
// allocation-free value type for the hot per-pixel path.
package mat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [9]float64

// Vec3 is a 3-component vector (XYZ, or linear RGB before/after a transform).
type Vec3 [3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// ColumnsMat3 builds a matrix whose columns are the given vectors, in the
// convention used by profile.deriveRGBToXYZ (§4.2): column 0 is c0, etc.
func ColumnsMat3(c0, c1, c2 Vec3) Mat3 {
	return Mat3{
		c0[0], c1[0], c2[0],
		c0[1], c1[1], c2[1],
		c0[2], c1[2], c2[2],
	}
}

// Diag3 returns a diagonal matrix with the given entries.
func Diag3(d Vec3) Mat3 {
	return Mat3{
		d[0], 0, 0,
		0, d[1], 0,
		0, 0, d[2],
	}
}

func (m Mat3) dense() *mat.Dense {
	return mat.NewDense(3, 3, m[:])
}

func fromDense(d mat.Matrix) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = d.At(r, c)
		}
	}
	return out
}

// Mul returns m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out mat.Dense
	out.Mul(m.dense(), n.dense())
	return fromDense(&out)
}

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// ErrSingular is returned by Invert when the matrix has no inverse.
var ErrSingular = errors.New("mat: matrix is singular")

// Invert returns the inverse of m. It fails with ErrSingular when m is
// not invertible (the "non-invertible matrix" arithmetic error kind of
// spec.md §7), which happens for degenerate (collinear) primaries.
func (m Mat3) Invert() (Mat3, error) {
	var inv mat.Dense
	err := inv.Inverse(m.dense())
	if err != nil {
		return Mat3{}, errors.Wrap(ErrSingular, err.Error())
	}
	return fromDense(&inv), nil
}

// NearEqual reports whether m and n are equal within eps per component,
// used by the round-trip identity property (spec.md §8) and by the
// primaries-match optimisation (spec.md §4.2).
func (m Mat3) NearEqual(n Mat3, eps float64) bool {
	for i := range m {
		d := m[i] - n[i]
		if d < 0 {
			d = -d
		}
		if d > eps {
			return false
		}
	}
	return true
}

// Add returns the element-wise sum of a and b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Scale returns a scaled by s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}

// Sum returns the sum of the three components.
func (a Vec3) Sum() float64 {
	return a[0] + a[1] + a[2]
}
