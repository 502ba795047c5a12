// Package pixelfmt implements the pixel-level numeric routines the
// transform and image packages build on: UNorm<->float conversion,
// luminance scaling with optional tone mapping, HALD CLUT lookup, filtered
// resize, and auto color grading (spec.md §4.5).
//
// Every function here operates on flat float64/byte slices rather than
// the image package's Image type, so pixelfmt has no dependency on image
// and can be unit-tested without building a full Image.
package pixelfmt

import (
	"math"

	"colorist.dev/colorist/colorerr"
)

// Depth is a destination sample depth in bits per channel.
type Depth int

const (
	Depth8  Depth = 8
	Depth10 Depth = 10
	Depth12 Depth = 12
	Depth16 Depth = 16
)

// maxValue returns the largest representable UNorm integer at depth.
func (d Depth) maxValue() float64 {
	switch d {
	case Depth8:
		return 255
	case Depth10:
		return 1023
	case Depth12:
		return 4095
	case Depth16:
		return 65535
	default:
		return 255
	}
}

// UNormToFloat converts n packed unsigned integer samples (8 or 16-bit
// storage, depth significant bits) to normalized [0,1] float64 values.
// bytesPerSample is 1 for depth<=8, 2 otherwise (10/12-bit values are
// carried in 16-bit containers, matching every codec this package
// targets).
func UNormToFloat(src []byte, depth Depth, n int) []float64 {
	out := make([]float64, n)
	maxV := depth.maxValue()
	if depth == Depth8 {
		for i := 0; i < n && i < len(src); i++ {
			out[i] = float64(src[i]) / maxV
		}
		return out
	}
	for i := 0; i < n; i++ {
		off := i * 2
		if off+1 >= len(src) {
			break
		}
		v := uint16(src[off]) | uint16(src[off+1])<<8
		out[i] = float64(v) / maxV
	}
	return out
}

// FloatToUNorm converts n normalized [0,1] float64 values to packed
// unsigned integer samples at depth, rounding half-to-nearest-even and
// clamping to the representable range.
func FloatToUNorm(src []float64, depth Depth, n int) []byte {
	maxV := depth.maxValue()
	if depth == Depth8 {
		out := make([]byte, n)
		for i := 0; i < n && i < len(src); i++ {
			out[i] = byte(roundEven(clamp01(src[i]) * maxV))
		}
		return out
	}
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		if i >= len(src) {
			break
		}
		v := uint16(roundEven(clamp01(src[i]) * maxV))
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roundEven rounds v to the nearest integer, ties to even (banker's
// rounding), matching spec.md §4.5's "round half-to-nearest-even".
func roundEven(v float64) float64 {
	return math.RoundToEven(v)
}

// ScaleLuminance multiplies each of n float64 samples by scale, clamps to
// >=0, and (when tonemap is true) applies the Reinhard operator x/(1+x)
// before a final clamp to [0,1] (spec.md §4.5 scaleLuminance).
func ScaleLuminance(src []float64, n int, scale float64, tonemap bool) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(src); i++ {
		v := src[i] * scale
		if v < 0 {
			v = 0
		}
		if tonemap {
			v = v / (1 + v)
		}
		out[i] = clamp01(v)
	}
	return out
}

// HaldLookup performs a tri-linear lookup of srcRGBA against a HALD CLUT
// raster, writing the remapped RGBA into dstRGBA. hald holds RGB entries
// (no alpha channel) in [0,1] float form for a raster dims pixels tall and
// dims*i pixels wide, where dims = i^2 and i is the CLUT's cube side: i
// tiles of dims x dims pixels laid out left to right, one per blue level,
// with red along x and green along y (spec.md §4.5 haldLookup). Only the
// top-left i x i corner of each tile is sampled; a dims^2 x dims raster
// holding a cube of side dims is not read by this layout.
//
// dims must be a perfect square (dims = i^2 for some integer i>0). Any
// other dims is rejected with an Unsupported error (spec.md §8 "HALD
// dimensional validity").
func HaldLookup(hald []float64, dims int, srcRGBA []float64, dstRGBA []float64) error {
	side, err := cubeSide(dims)
	if err != nil {
		return err
	}
	n := len(srcRGBA) / 4
	for i := 0; i < n; i++ {
		r := clamp01(srcRGBA[i*4+0])
		g := clamp01(srcRGBA[i*4+1])
		b := clamp01(srcRGBA[i*4+2])
		a := srcRGBA[i*4+3]

		rr, gg, bb := trilinearHald(hald, dims, side, r, g, b)
		dstRGBA[i*4+0] = rr
		dstRGBA[i*4+1] = gg
		dstRGBA[i*4+2] = bb
		dstRGBA[i*4+3] = a
	}
	return nil
}

// cubeSide validates that dims is a perfect square i^2 and returns i, the
// cube's side length.
func cubeSide(dims int) (int, error) {
	if dims <= 0 {
		return 0, colorerr.New(colorerr.Unsupported, "HaldLookup", "hald dims must be positive")
	}
	i := int(math.Round(math.Sqrt(float64(dims))))
	for _, cand := range []int{i - 1, i, i + 1} {
		if cand > 0 && cand*cand == dims {
			return cand, nil
		}
	}
	return 0, colorerr.New(colorerr.Unsupported, "HaldLookup", "hald dims is not a perfect square")
}

// trilinearHald samples hald (laid out as `side` tiles of dims x dims,
// each tile a constant-blue slice) at the continuous position implied by
// r,g,b, doing tri-linear interpolation across the 8 nearest lattice
// points.
func trilinearHald(hald []float64, dims, side int, r, g, b float64) (float64, float64, float64) {
	maxIdx := float64(side - 1)
	fr := r * maxIdx
	fg := g * maxIdx
	fb := b * maxIdx

	r0, g0, b0 := int(fr), int(fg), int(fb)
	r1, g1, b1 := clampIdx(r0+1, side), clampIdx(g0+1, side), clampIdx(b0+1, side)
	r0, g0, b0 = clampIdx(r0, side), clampIdx(g0, side), clampIdx(b0, side)

	dr, dg, db := fr-float64(r0), fg-float64(g0), fb-float64(b0)

	sample := func(ri, gi, bi int) (float64, float64, float64) {
		return haldAt(hald, dims, side, ri, gi, bi)
	}

	c000r, c000g, c000b := sample(r0, g0, b0)
	c100r, c100g, c100b := sample(r1, g0, b0)
	c010r, c010g, c010b := sample(r0, g1, b0)
	c110r, c110g, c110b := sample(r1, g1, b0)
	c001r, c001g, c001b := sample(r0, g0, b1)
	c101r, c101g, c101b := sample(r1, g0, b1)
	c011r, c011g, c011b := sample(r0, g1, b1)
	c111r, c111g, c111b := sample(r1, g1, b1)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	bi := func(c00, c10, c01, c11, dr, dg float64) float64 {
		return lerp(lerp(c00, c10, dr), lerp(c01, c11, dr), dg)
	}

	r0z := bi(c000r, c100r, c010r, c110r, dr, dg)
	r1z := bi(c001r, c101r, c011r, c111r, dr, dg)
	g0z := bi(c000g, c100g, c010g, c110g, dr, dg)
	g1z := bi(c001g, c101g, c011g, c111g, dr, dg)
	b0z := bi(c000b, c100b, c010b, c110b, dr, dg)
	b1z := bi(c001b, c101b, c011b, c111b, dr, dg)

	return lerp(r0z, r1z, db), lerp(g0z, g1z, db), lerp(b0z, b1z, db)
}

func clampIdx(v, side int) int {
	if v < 0 {
		return 0
	}
	if v >= side {
		return side - 1
	}
	return v
}

// haldAt reads the RGB triple at cube coordinate (r,g,b) from a HALD image
// dims*side pixels wide and dims tall, laid out as `side` tiles (one per
// blue slice) placed left to right, each tile dims x dims pixels holding
// the (r,g) plane at x = r, y = g.
func haldAt(hald []float64, dims, side, r, g, b int) (float64, float64, float64) {
	tileOriginX := b * dims
	x := tileOriginX + r
	y := g
	width := dims * side
	idx := (y*width + x) * 3
	if idx+2 >= len(hald) {
		return 0, 0, 0
	}
	return hald[idx], hald[idx+1], hald[idx+2]
}

// ColorGrade estimates an unspecified destination luminance and/or gamma
// from a set of linear-light float RGBA pixels (spec.md §4.5 colorGrade).
// outLuminance/outGamma are in/out: a non-zero input is left untouched.
func ColorGrade(linearRGBA []float64, n int, srcLuminance float64, dstDepth Depth, outLuminance, outGamma *float64) {
	if *outLuminance == 0 {
		maxV := 0.0
		for i := 0; i < n; i++ {
			for c := 0; c < 3; c++ {
				v := linearRGBA[i*4+c]
				if v > maxV {
					maxV = v
				}
			}
		}
		lum := maxV * srcLuminance
		if lum > srcLuminance {
			lum = srcLuminance
		}
		*outLuminance = lum
	}

	if *outGamma == 0 {
		*outGamma = bestFitGamma(linearRGBA, n, dstDepth)
	}
}

// bestFitGamma sweeps gamma in {2.0, 2.1, ..., 5.0} and returns the value
// minimizing the sum of absolute differences between each source channel
// and its round-trip through quantization at dstDepth under the trial
// curve (spec.md §4.5).
func bestFitGamma(linearRGBA []float64, n int, dstDepth Depth) float64 {
	best := 2.2
	bestErr := math.Inf(1)
	maxV := dstDepth.maxValue()

	for step := 0; step <= 30; step++ {
		gamma := 2.0 + 0.1*float64(step)
		invGamma := 1.0 / gamma
		sum := 0.0
		for i := 0; i < n; i++ {
			for c := 0; c < 3; c++ {
				v := clamp01(linearRGBA[i*4+c])
				encoded := math.Pow(v, invGamma)
				quant := roundEven(encoded*maxV) / maxV
				decoded := math.Pow(quant, gamma)
				sum += math.Abs(v - decoded)
			}
		}
		if sum < bestErr {
			bestErr = sum
			best = gamma
		}
	}
	return best
}
