package pixelfmt

import "math"

// ResizeFilter selects the resampling kernel Resize uses.
type ResizeFilter int

const (
	// FilterAuto picks CatmullRom when enlarging and Mitchell when
	// shrinking (spec.md §4.5 resize).
	FilterAuto ResizeFilter = iota
	FilterBox
	FilterTriangle
	FilterCubic
	FilterCatmullRom
	FilterMitchell
	FilterNearest
)

type kernelFunc func(x float64) float64

// support returns the kernel's half-width in source-pixel units.
func (f ResizeFilter) support() float64 {
	switch f {
	case FilterBox, FilterNearest:
		return 0.5
	case FilterTriangle:
		return 1.0
	case FilterCubic, FilterCatmullRom, FilterMitchell:
		return 2.0
	default:
		return 1.0
	}
}

func (f ResizeFilter) kernel() kernelFunc {
	switch f {
	case FilterBox:
		return boxKernel
	case FilterTriangle:
		return triangleKernel
	case FilterCubic:
		return cubicKernel
	case FilterCatmullRom:
		return catmullRomKernel
	case FilterMitchell:
		return mitchellKernel
	case FilterNearest:
		return nearestKernel
	default:
		return triangleKernel
	}
}

func boxKernel(x float64) float64 {
	if x >= -0.5 && x < 0.5 {
		return 1
	}
	return 0
}

func nearestKernel(x float64) float64 {
	if x > -0.5 && x <= 0.5 {
		return 1
	}
	return 0
}

func triangleKernel(x float64) float64 {
	x = math.Abs(x)
	if x < 1 {
		return 1 - x
	}
	return 0
}

// cubicKernel is the classic Catmull-Rom-adjacent general cubic with
// B=0, C=0.75 (a softer "Cubic" preset distinct from CatmullRom B=0,C=0.5).
func cubicKernel(x float64) float64 {
	return bcSpline(x, 0, 0.75)
}

func catmullRomKernel(x float64) float64 {
	return bcSpline(x, 0, 0.5)
}

func mitchellKernel(x float64) float64 {
	return bcSpline(x, 1.0/3.0, 1.0/3.0)
}

// bcSpline implements the Mitchell-Netravali parametric cubic family.
func bcSpline(x, b, c float64) float64 {
	x = math.Abs(x)
	x2 := x * x
	x3 := x2 * x
	if x < 1 {
		return ((12-9*b-6*c)*x3 + (-18+12*b+6*c)*x2 + (6 - 2*b)) / 6
	}
	if x < 2 {
		return ((-b-6*c)*x3 + (6*b+30*c)*x2 + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	}
	return 0
}

type weight struct {
	srcIdx int
	weight float64
}

// buildWeights computes, for each of dstN output samples, the list of
// (srcIdx, weight) contributions from a srcN-length source axis, for the
// given filter.
func buildWeights(srcN, dstN int, filter ResizeFilter) [][]weight {
	scale := float64(dstN) / float64(srcN)
	f := filter
	if f == FilterAuto {
		if scale > 1 {
			f = FilterCatmullRom
		} else {
			f = FilterMitchell
		}
	}
	kernel := f.kernel()
	support := f.support()
	if scale < 1 {
		support /= scale
	}

	out := make([][]weight, dstN)
	for i := 0; i < dstN; i++ {
		center := (float64(i) + 0.5) / scale
		lo := int(math.Floor(center - support))
		hi := int(math.Ceil(center + support))
		var ws []weight
		total := 0.0
		for j := lo; j <= hi; j++ {
			if j < 0 || j >= srcN {
				continue
			}
			var d float64
			if scale < 1 {
				d = (float64(j) + 0.5 - center) * scale
			} else {
				d = float64(j) + 0.5 - center
			}
			w := kernel(d)
			if w == 0 {
				continue
			}
			ws = append(ws, weight{srcIdx: j, weight: w})
			total += w
		}
		if total != 0 {
			for k := range ws {
				ws[k].weight /= total
			}
		}
		out[i] = ws
	}
	return out
}

// Resize resamples a srcW x srcH RGBA float64 image (row-major, 4
// floats/pixel) to dstW x dstH using a separable two-pass filtered
// resample (horizontal then vertical), per spec.md §4.5.
func Resize(src []float64, srcW, srcH, dstW, dstH int, filter ResizeFilter) []float64 {
	hWeights := buildWeights(srcW, dstW, filter)
	vWeights := buildWeights(srcH, dstH, filter)

	// Horizontal pass: srcW x srcH -> dstW x srcH.
	mid := make([]float64, dstW*srcH*4)
	for y := 0; y < srcH; y++ {
		rowOff := y * srcW * 4
		for x := 0; x < dstW; x++ {
			var r, g, b, a float64
			for _, w := range hWeights[x] {
				o := rowOff + w.srcIdx*4
				r += src[o] * w.weight
				g += src[o+1] * w.weight
				b += src[o+2] * w.weight
				a += src[o+3] * w.weight
			}
			o := (y*dstW + x) * 4
			mid[o], mid[o+1], mid[o+2], mid[o+3] = r, g, b, a
		}
	}

	// Vertical pass: dstW x srcH -> dstW x dstH.
	dst := make([]float64, dstW*dstH*4)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			var r, g, b, a float64
			for _, w := range vWeights[y] {
				o := (w.srcIdx*dstW + x) * 4
				r += mid[o] * w.weight
				g += mid[o+1] * w.weight
				b += mid[o+2] * w.weight
				a += mid[o+3] * w.weight
			}
			o := (y*dstW + x) * 4
			dst[o], dst[o+1], dst[o+2], dst[o+3] = clamp01(r), clamp01(g), clamp01(b), clamp01(a)
		}
	}
	return dst
}
