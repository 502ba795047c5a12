// Package transform implements the color transform engine (C4): the
// pipeline that moves pixels from a source profile to a destination
// profile through a canonical XYZ intermediate, with optional luminance
// rescaling and tone mapping (spec.md §4.4, the "heart" of the core).
package transform

import (
	"context"
	"math"

	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/image"
	"colorist.dev/colorist/mat"
	"colorist.dev/colorist/profile"
	"colorist.dev/colorist/taskpool"
	"colorist.dev/colorist/transfer"
)

// Format names the per-pixel channel layout a Transform reads or writes.
type Format int

const (
	FormatXYZF Format = iota
	FormatRGBF
	FormatRGBU8
	FormatRGBU16
	FormatRGBAF
	FormatRGBAU8
	FormatRGBAU16
)

func (f Format) hasAlpha() bool {
	switch f {
	case FormatRGBAF, FormatRGBAU8, FormatRGBAU16:
		return true
	default:
		return false
	}
}

func (f Format) isFloat() bool {
	switch f {
	case FormatXYZF, FormatRGBF, FormatRGBAF:
		return true
	default:
		return false
	}
}

func (f Format) depthMax() float64 {
	switch f {
	case FormatRGBU16, FormatRGBAU16:
		return 65535
	default:
		return 255
	}
}

// ToneMapMode selects whether luminance tone mapping runs.
type ToneMapMode int

const (
	ToneMapAuto ToneMapMode = iota
	ToneMapOn
	ToneMapOff
)

// ToneMapParams tune the extended Reinhard curve. The default-constructed
// zero value behaves as plain Reinhard (spec.md §4.4 step 3: "the
// configuration knobs ... parameterize an extended Reinhard curve but the
// default is plain Reinhard").
type ToneMapParams struct {
	Contrast  float64
	ClipPoint float64
	Speed     float64
	Power     float64
}

// defaultLuminance is used whenever a profile's MaxLuminance is the
// "unspecified" sentinel 0 (spec.md §3 Profile.maxLuminance).
const defaultLuminance = 300

// epsilon bounds the "luminance scales are effectively equal" comparison
// in Prepare step 4.
const epsilon = 1e-6

// d65 is the fallback white point when neither profile supplies one
// (spec.md §4.4 step 1).
var d65 = [2]float64{0.3127, 0.3290}

// Transform is a plan object: it borrows its source/destination
// profiles (which must outlive it), and once Prepared holds only
// immutable derived state consumed by the read-only hot pixel kernel
// (spec.md §3 Transform, §5 shared resource policy).
type Transform struct {
	SrcProfile *profile.Profile // nil = XYZ source
	DstProfile *profile.Profile // nil = XYZ destination
	SrcFormat  Format
	SrcDepth   int
	DstFormat  Format
	DstDepth   int
	ToneMap    ToneMapMode
	ToneMapTunables ToneMapParams

	prepared bool

	srcToXYZ mat.Mat3
	xyzToDst mat.Mat3

	srcEOTF transfer.Curve
	dstOETF transfer.Curve

	srcLuminanceScale float64
	dstLuminanceScale float64
	srcCurveScale     float64
	dstCurveScale     float64

	tonemapEnabled         bool
	luminanceScaleEnabled  bool
	whitePoint             [2]float64
	reformat               bool
}

// Build allocates an unprepared Transform from two (possibly nil)
// profiles and two format/depth pairs (spec.md §4.4 Build).
func Build(srcProfile *profile.Profile, srcFormat Format, srcDepth int, dstProfile *profile.Profile, dstFormat Format, dstDepth int, toneMap ToneMapMode, tunables ToneMapParams) *Transform {
	return &Transform{
		SrcProfile:      srcProfile,
		DstProfile:      dstProfile,
		SrcFormat:       srcFormat,
		SrcDepth:        srcDepth,
		DstFormat:       dstFormat,
		DstDepth:        dstDepth,
		ToneMap:         toneMap,
		ToneMapTunables: tunables,
	}
}

// Prepare derives and memoizes all per-pixel-kernel state (spec.md §4.4
// Prepare). It is idempotent: a second call is a no-op.
func (t *Transform) Prepare() error {
	if t.prepared {
		return nil
	}

	t.whitePoint = t.resolveWhitePoint()

	srcLum, srcCurve := t.profileScale(t.SrcProfile)
	dstLum, dstCurve := t.profileScale(t.DstProfile)
	t.srcLuminanceScale, t.srcCurveScale = srcLum, srcCurve
	t.dstLuminanceScale, t.dstCurveScale = dstLum, dstCurve

	srcEffective := srcLum * srcCurve
	dstEffective := dstLum * dstCurve

	switch t.ToneMap {
	case ToneMapOn:
		t.tonemapEnabled = true
	case ToneMapOff:
		t.tonemapEnabled = false
	default:
		t.tonemapEnabled = dstEffective != 0 && srcEffective/dstEffective > 1.001
	}
	t.luminanceScaleEnabled = t.tonemapEnabled || math.Abs(srcEffective-dstEffective) > epsilon

	srcPrimaries, dstPrimaries := t.resolvedPrimaries()

	t.srcEOTF = t.resolveCurve(t.SrcProfile)
	t.dstOETF = t.resolveCurve(t.DstProfile)

	srcToXYZ, err := buildRGBToXYZ(srcPrimaries)
	if err != nil {
		return colorerr.Wrap(colorerr.Arithmetic, "transform.Prepare", err)
	}
	dstToXYZ, err := buildRGBToXYZ(dstPrimaries)
	if err != nil {
		return colorerr.Wrap(colorerr.Arithmetic, "transform.Prepare", err)
	}
	xyzToDst, err := dstToXYZ.Invert()
	if err != nil {
		return colorerr.Wrap(colorerr.Arithmetic, "transform.Prepare", err)
	}
	t.srcToXYZ = srcToXYZ
	t.xyzToDst = xyzToDst

	t.reformat = profile.Matches(t.SrcProfile, t.DstProfile) && t.SrcFormat == t.DstFormat && t.SrcDepth == t.DstDepth

	t.prepared = true
	return nil
}

func (t *Transform) resolveWhitePoint() [2]float64 {
	if t.DstProfile != nil {
		return [2]float64{t.DstProfile.Primaries.Wx, t.DstProfile.Primaries.Wy}
	}
	if t.SrcProfile != nil {
		return [2]float64{t.SrcProfile.Primaries.Wx, t.SrcProfile.Primaries.Wy}
	}
	return d65
}

func (t *Transform) profileScale(p *profile.Profile) (luminance, curveScale float64) {
	if p == nil {
		return defaultLuminance, 1
	}
	lum := p.MaxLuminance
	if lum == 0 {
		lum = defaultLuminance
	}
	return float64(lum), p.Curve.ImplicitScale(p.MaxLuminance, defaultLuminance)
}

// resolvedPrimaries implements spec.md §4.2's round-trip protection: if
// source and destination primaries match within 0.0001 per component,
// destination's copy replaces source's before matrix derivation.
func (t *Transform) resolvedPrimaries() (src, dst profile.Primaries) {
	dst = stockOrXYZPrimaries(t.DstProfile)
	src = stockOrXYZPrimaries(t.SrcProfile)
	if primariesNearEqual(src, dst, 0.0001) {
		src = dst
	}
	return src, dst
}

func stockOrXYZPrimaries(p *profile.Profile) profile.Primaries {
	if p == nil {
		return profile.PrimariesBT709
	}
	return p.Primaries
}

func primariesNearEqual(a, b profile.Primaries, eps float64) bool {
	diffs := []float64{a.Rx - b.Rx, a.Ry - b.Ry, a.Gx - b.Gx, a.Gy - b.Gy, a.Bx - b.Bx, a.By - b.By, a.Wx - b.Wx, a.Wy - b.Wy}
	for _, d := range diffs {
		if math.Abs(d) > eps {
			return false
		}
	}
	return true
}

func buildRGBToXYZ(p profile.Primaries) (mat.Mat3, error) {
	full, err := profile.Create(p, transfer.Curve{Kind: transfer.Gamma, Gamma: 1}, 0, "")
	if err != nil {
		return mat.Mat3{}, err
	}
	return full.RGBToXYZ, nil
}

// resolveCurve picks the transfer curve a profile's EOTF/OETF uses,
// probing PQ signature before the explicit curve type (spec.md §4.4
// step 5: "EOTF/OETF variant is chosen by probe order: PQ signature ->
// explicit curve type -> gamma").
func (t *Transform) resolveCurve(p *profile.Profile) transfer.Curve {
	if p == nil {
		return transfer.Curve{Kind: transfer.Gamma, Gamma: 1}
	}
	if p.HasPQSignature() {
		return transfer.Curve{Kind: transfer.PQ}
	}
	return p.Curve
}

// Run executes the transform over pixelCount pixels split into contiguous
// ranges by pool.Run (spec.md §4.4 Concurrency, §4.9 Task Pool). src/dst
// are float RGBA views, four values per pixel, whatever the Transform's
// source and destination Format/Depth.
func (t *Transform) Run(ctx context.Context, pool *taskpool.Pool, src, dst []float64, pixelCount int) error {
	if !t.prepared {
		if err := t.Prepare(); err != nil {
			return err
		}
	}
	if pixelCount <= 0 {
		return nil
	}
	kernel := t.kernelFor()
	return pool.Run(ctx, pixelCount, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			kernel(t, src, dst, i)
		}
		return nil
	})
}

// RunImages is a convenience wrapper over Run for callers holding
// image.Image sources/destinations rather than raw float slices.
func (t *Transform) RunImages(ctx context.Context, pool *taskpool.Pool, src, dst *image.Image) error {
	srcView := src.PrepareReadPixels(image.LayoutF32)
	dstView := dst.PrepareWritePixels(image.LayoutF32)
	n := src.Width * src.Height
	if err := t.Run(ctx, pool, srcView, dstView, n); err != nil {
		return err
	}
	dst.CommitWrite(dstView)
	return nil
}

type kernelFunc func(t *Transform, src, dst []float64, i int)

// kernelFor picks the reformat-only kernel (cheap depth/format change,
// no color math) when profiles match exactly, else the full-transform
// kernel (spec.md §4.4 Format dispatch).
func (t *Transform) kernelFor() kernelFunc {
	if t.reformat {
		return reformatKernel
	}
	return transformKernel
}

// reformatKernel copies RGBA through unchanged (both sides are float
// RGBA views regardless of on-wire depth; Format/Depth only affects
// how image.Image packs/unpacks outside this kernel).
func reformatKernel(t *Transform, src, dst []float64, i int) {
	o := i * 4
	dst[o], dst[o+1], dst[o+2] = src[o], src[o+1], src[o+2]
	if t.DstFormat.hasAlpha() {
		if t.SrcFormat.hasAlpha() {
			dst[o+3] = src[o+3]
		} else {
			dst[o+3] = 1
		}
	}
}

// transformKernel is the full per-pixel pipeline of spec.md §4.4
// "Execute per pixel": decode source to linear RGB, to XYZ, optional
// luminance rescale + tone map in xyY, back to XYZ, to destination
// linear RGB, clamp, encode with the destination OETF.
func transformKernel(t *Transform, src, dst []float64, i int) {
	o := i * 4
	r, g, b := src[o], src[o+1], src[o+2]
	a := 1.0
	if t.SrcFormat.hasAlpha() {
		a = src[o+3]
	}

	lr := t.srcEOTF.EOTF(r)
	lg := t.srcEOTF.EOTF(g)
	lb := t.srcEOTF.EOTF(b)

	xyz := t.srcToXYZ.MulVec(mat.Vec3{lr, lg, lb})

	if t.luminanceScaleEnabled {
		xyz = t.rescaleLuminance(xyz)
	}

	rgb := t.xyzToDst.MulVec(xyz)
	rr, gg, bb := rgb[0], rgb[1], rgb[2]

	if t.DstProfile != nil {
		rr, gg, bb = clamp01(rr), clamp01(gg), clamp01(bb)
	}

	rr = t.dstOETF.OETF(rr)
	gg = t.dstOETF.OETF(gg)
	bb = t.dstOETF.OETF(bb)

	dst[o], dst[o+1], dst[o+2] = rr, gg, bb
	if t.DstFormat.hasAlpha() {
		dst[o+3] = a
	}
}

// rescaleLuminance implements spec.md §4.4 step 3: XYZ -> xyY, rescale Y
// by srcCurveScale * (srcLum/dstLum) / dstCurveScale, optional Reinhard
// tone map, xyY -> XYZ.
func (t *Transform) rescaleLuminance(xyz mat.Vec3) mat.Vec3 {
	x, y, z := xyz[0], xyz[1], xyz[2]
	sum := x + y + z
	var cx, cy float64
	if sum <= 0 {
		cx, cy = t.whitePoint[0], t.whitePoint[1]
	} else {
		cx, cy = x/sum, y/sum
	}
	Y := y
	Y *= t.srcCurveScale
	Y *= t.srcLuminanceScale / t.dstLuminanceScale
	Y /= t.dstCurveScale

	if t.tonemapEnabled {
		Y = t.reinhard(Y)
	}

	if cy <= 0 {
		return mat.Vec3{0, Y, 0}
	}
	return mat.Vec3{cx * Y / cy, Y, (1 - cx - cy) * Y / cy}
}

// reinhard applies the base Reinhard operator Y/(1+Y) when all four
// tunables are zero (spec.md §4.4 step 3). Otherwise it computes
// Y^Power/(Contrast+Y^Power), with a zero Power or Contrast read as 1;
// ClipPoint and Speed do not change the curve.
func (t *Transform) reinhard(y float64) float64 {
	p := t.ToneMapTunables
	if p.Contrast == 0 && p.ClipPoint == 0 && p.Speed == 0 && p.Power == 0 {
		return y / (1 + y)
	}
	power := p.Power
	if power == 0 {
		power = 1
	}
	contrast := p.Contrast
	if contrast == 0 {
		contrast = 1
	}
	numerator := math.Pow(y, power)
	return numerator / (contrast + numerator)
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
