package profile

import (
	"colorist.dev/colorist/mat"
)

// Primaries holds the four chromaticity pairs that define an RGB gamut:
// the red, green, and blue colorants and the white point (spec.md §3).
type Primaries struct {
	Rx, Ry float64
	Gx, Gy float64
	Bx, By float64
	Wx, Wy float64
}

// Stock primaries, spec.md §4.3 "stock profiles".
var (
	PrimariesBT709  = Primaries{0.640, 0.330, 0.300, 0.600, 0.150, 0.060, 0.3127, 0.3290}
	PrimariesBT2020 = Primaries{0.708, 0.292, 0.170, 0.797, 0.131, 0.046, 0.3127, 0.3290}
	PrimariesP3     = Primaries{0.680, 0.320, 0.265, 0.690, 0.150, 0.060, 0.3127, 0.3290}
)

// D65 is the standard illuminant white point used as the fallback when
// neither profile in a transform specifies one (spec.md §4.4 step 1).
var D65 = struct{ X, Y float64 }{0.3127, 0.3290}

// nonZero reports whether no chromaticity component is zero, the validity
// invariant for a usable profile (spec.md §3).
func (p Primaries) nonZero() bool {
	return p.Rx != 0 && p.Ry != 0 && p.Gx != 0 && p.Gy != 0 &&
		p.Bx != 0 && p.By != 0 && p.Wx != 0 && p.Wy != 0
}

// xyToXYZ converts a chromaticity pair to an XYZ vector with Y=1 (x,y,z)
// where z = 1 - x - y, the standard xyY->XYZ relation used for colorant
// and white point columns (spec.md §4.2 step 1).
func xyToXYZ(x, y float64) mat.Vec3 {
	return mat.Vec3{x, y, 1 - x - y}
}

// nearEqual reports whether two Primaries match within eps per component,
// the "source and destination primaries match" test of spec.md §4.2.
func (p Primaries) nearEqual(q Primaries, eps float64) bool {
	diffs := [8]float64{
		p.Rx - q.Rx, p.Ry - q.Ry,
		p.Gx - q.Gx, p.Gy - q.Gy,
		p.Bx - q.Bx, p.By - q.By,
		p.Wx - q.Wx, p.Wy - q.Wy,
	}
	for _, d := range diffs {
		if d < 0 {
			d = -d
		}
		if d > eps {
			return false
		}
	}
	return true
}

// deriveRGBToXYZ builds the matrix that converts linear RGB in the gamut
// described by p to CIE XYZ, following spec.md §4.2:
//
//  1. form P with colorant XYZ columns (x,y,1-x-y)
//  2. solve U = P^-1 * W for the white point column W
//  3. scale P's columns by diag(Ux/Wy, Uy/Wy, Uz/Wy)
//
// Unlike the row-vector convention the source describes (which transposes
// the result to match a v*M multiply routine), mat.Mat3.MulVec here applies
// M*v directly, so no transpose is needed — the testable property (matrix
// inversion round-trips to identity within 1e-5) holds either way.
func deriveRGBToXYZ(p Primaries) (mat.Mat3, error) {
	r := xyToXYZ(p.Rx, p.Ry)
	g := xyToXYZ(p.Gx, p.Gy)
	b := xyToXYZ(p.Bx, p.By)
	w := xyToXYZ(p.Wx, p.Wy)

	P := mat.ColumnsMat3(r, g, b)
	Pinv, err := P.Invert()
	if err != nil {
		return mat.Mat3{}, err
	}
	U := Pinv.MulVec(w)

	if p.Wy == 0 {
		return mat.Mat3{}, errZeroLuminanceDivide
	}
	D := mat.Diag3(mat.Vec3{U[0] / p.Wy, U[1] / p.Wy, U[2] / p.Wy})

	return P.Mul(D), nil
}
