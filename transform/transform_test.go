package transform

import (
	"context"
	"math"
	"testing"

	"colorist.dev/colorist/image"
	"colorist.dev/colorist/profile"
	"colorist.dev/colorist/taskpool"
	"colorist.dev/colorist/transfer"
)

func mustStock(t *testing.T, id string) *profile.Profile {
	t.Helper()
	p, err := profile.CreateStock(id)
	if err != nil {
		t.Fatalf("CreateStock(%q): %v", id, err)
	}
	return p
}

func TestPrepareIsIdempotent(t *testing.T) {
	src := mustStock(t, "srgb")
	dst := mustStock(t, "srgb")
	tr := Build(src, FormatRGBAF, 32, dst, FormatRGBAF, 32, ToneMapAuto, ToneMapParams{})
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	srcToXYZ := tr.srcToXYZ
	if err := tr.Prepare(); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if tr.srcToXYZ != srcToXYZ {
		t.Fatal("Prepare is not idempotent: derived state changed")
	}
}

func TestSameProfileIsReformat(t *testing.T) {
	src := mustStock(t, "srgb")
	dst := mustStock(t, "srgb")
	tr := Build(src, FormatRGBAF, 32, dst, FormatRGBAF, 32, ToneMapAuto, ToneMapParams{})
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !tr.reformat {
		t.Fatal("identical profiles+format+depth should select the reformat kernel")
	}
}

func TestDifferentProfileIsFullTransform(t *testing.T) {
	src := mustStock(t, "srgb")
	dst := mustStock(t, "bt2020")
	tr := Build(src, FormatRGBAF, 32, dst, FormatRGBAF, 32, ToneMapAuto, ToneMapParams{})
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if tr.reformat {
		t.Fatal("different profiles should not select the reformat kernel")
	}
}

func TestRunRoundTripsWhiteThroughSameProfile(t *testing.T) {
	p := mustStock(t, "srgb")
	tr := Build(p, FormatRGBAF, 32, p, FormatRGBAF, 32, ToneMapOff, ToneMapParams{})
	src := []float64{1, 1, 1, 1}
	dst := make([]float64, 4)
	pool := taskpool.New(2)
	if err := tr.Run(context.Background(), pool, src, dst, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(dst[i]-1) > 1e-3 {
			t.Fatalf("channel %d = %v, want ~1 (white should round-trip through identical profile)", i, dst[i])
		}
	}
}

func TestRunProducesAlphaDefaultWhenExtendingFormat(t *testing.T) {
	src := mustStock(t, "srgb")
	dst := mustStock(t, "srgb")
	tr := Build(src, FormatRGBF, 32, dst, FormatRGBAF, 32, ToneMapOff, ToneMapParams{})
	in := []float64{0.5, 0.5, 0.5, 0}
	out := make([]float64, 4)
	pool := taskpool.New(1)
	if err := tr.Run(context.Background(), pool, in, out, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[3] != 1 {
		t.Fatalf("alpha default when extending RGB->RGBA = %v, want 1", out[3])
	}
}

func TestToneMapAutoEnablesForHDRToSDR(t *testing.T) {
	src := mustStock(t, "pq")
	dst := mustStock(t, "srgb")
	tr := Build(src, FormatRGBAF, 32, dst, FormatRGBAF, 32, ToneMapAuto, ToneMapParams{})
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !tr.tonemapEnabled {
		t.Fatal("PQ(10000 nit) -> sRGB(300 nit) should enable tonemap under Auto")
	}
}

func TestToneMapOffDisablesRegardlessOfLuminance(t *testing.T) {
	src := mustStock(t, "pq")
	dst := mustStock(t, "srgb")
	tr := Build(src, FormatRGBAF, 32, dst, FormatRGBAF, 32, ToneMapOff, ToneMapParams{})
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if tr.tonemapEnabled {
		t.Fatal("ToneMapOff should never enable tonemap")
	}
}

func TestRunNilPixelCountIsNoop(t *testing.T) {
	p := mustStock(t, "srgb")
	tr := Build(p, FormatRGBAF, 32, p, FormatRGBAF, 32, ToneMapOff, ToneMapParams{})
	pool := taskpool.New(1)
	if err := tr.Run(context.Background(), pool, nil, nil, 0); err != nil {
		t.Fatalf("Run(0) = %v, want nil", err)
	}
}

// destinationCode runs a 1x1 transform end to end through real image.Image
// buffers (exercising quantization, not just the float kernel) and returns
// the resulting integer code of the destination's red channel.
func destinationCode(t *testing.T, src *profile.Profile, srcPixel [4]float64, dst *profile.Profile, dstDepth image.Depth, toneMap ToneMapMode) int {
	t.Helper()
	in, err := image.Create(1, 1, image.DepthF, src)
	if err != nil {
		t.Fatalf("image.Create(src): %v", err)
	}
	if err := in.SetPixel(0, 0, srcPixel[0], srcPixel[1], srcPixel[2], srcPixel[3]); err != nil {
		t.Fatalf("SetPixel: %v", err)
	}
	out, err := image.Create(1, 1, dstDepth, dst)
	if err != nil {
		t.Fatalf("image.Create(dst): %v", err)
	}
	dstFormat := FormatRGBAU16
	if dstDepth == image.Depth8 {
		dstFormat = FormatRGBAU8
	}
	tr := Build(src, FormatRGBAF, 32, dst, dstFormat, int(dstDepth), toneMap, ToneMapParams{})
	pool := taskpool.New(1)
	if err := tr.RunImages(context.Background(), pool, in, out); err != nil {
		t.Fatalf("RunImages: %v", err)
	}
	layout := image.LayoutU16
	if dstDepth == image.Depth8 {
		layout = image.LayoutU8
	}
	view := out.PrepareReadPixels(layout)
	maxCode := math.Pow(2, float64(dstDepth)) - 1
	return int(math.Round(view[0] * maxCode))
}

// TestEndToEndScenarios drives the full Build+RunImages pipeline to the
// bit-exact(ish) destination codes spec.md §8's concrete end-to-end
// scenarios name, rather than only a transfer-curve sub-step
// (transfer_test.go already covers the PQ OETF(80/10000) sample alone).
func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name     string
		src      *profile.Profile
		srcWhite [4]float64
		dst      *profile.Profile
		depth    image.Depth
		toneMap  ToneMapMode
		want     int
		slack    int
	}{
		{
			name: "sRGB@80nits white -> BT.2020 PQ@10000nits 12-bit",
			src: mustCreate(t, profile.PrimariesBT709,
				transfer.Curve{Kind: transfer.Gamma, Gamma: 2.4}, 80, "sRGB@80"),
			srcWhite: [4]float64{1, 1, 1, 1},
			dst:      mustStock(t, "pq"),
			depth:    image.Depth12,
			toneMap:  ToneMapAuto,
			want:     1421,
			slack:    2,
		},
		{
			name:     "PQ@10000nits full-scale -> sRGB@300nits tonemap",
			src:      mustStock(t, "pq"),
			srcWhite: [4]float64{1, 1, 1, 1},
			dst:      mustStock(t, "srgb"),
			depth:    image.Depth8,
			toneMap:  ToneMapAuto,
			want:     249,
			slack:    5,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := destinationCode(t, tc.src, tc.srcWhite, tc.dst, tc.depth, tc.toneMap)
			if diff := got - tc.want; diff < -tc.slack || diff > tc.slack {
				t.Fatalf("destination code = %d, want %d +/- %d (spec.md §8)", got, tc.want, tc.slack)
			}
		})
	}
}

func mustCreate(t *testing.T, p profile.Primaries, curve transfer.Curve, maxLuminance int, desc string) *profile.Profile {
	t.Helper()
	pr, err := profile.Create(p, curve, maxLuminance, desc)
	if err != nil {
		t.Fatalf("profile.Create: %v", err)
	}
	return pr
}
