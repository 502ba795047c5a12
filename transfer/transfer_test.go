package transfer

import (
	"math"
	"testing"
)

func TestGammaSaturatesAtBoundaries(t *testing.T) {
	c := Curve{Kind: Gamma, Gamma: 2.4}
	if got := c.EOTF(0); got != 0 {
		t.Errorf("EOTF(0) = %v, want 0", got)
	}
	if got := c.EOTF(1); math.Abs(got-1) > 1e-12 {
		t.Errorf("EOTF(1) = %v, want 1", got)
	}
	if got := c.OETF(0); got != 0 {
		t.Errorf("OETF(0) = %v, want 0", got)
	}
}

func TestGammaNeverRaisesNegativeToFraction(t *testing.T) {
	c := Curve{Kind: Gamma, Gamma: 2.4}
	// A negative input must clamp to 0 before exponentiation, never produce NaN.
	got := c.EOTF(-0.5)
	if math.IsNaN(got) || got != 0 {
		t.Errorf("EOTF(-0.5) = %v, want 0 (no NaN)", got)
	}
}

func TestPQRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 0.01, 0.3469, 0.5, 1.0} {
		l := pqEOTF(n)
		back := pqOETF(l)
		if math.Abs(back-n) > 1e-6 {
			t.Errorf("PQ round-trip(%v) = %v, want %v", n, back, n)
		}
	}
}

func TestPQReferenceValue(t *testing.T) {
	// 80 nits out of a 10000 nit PQ reference -> OETF ~= 0.3469 (scenario 1,
	// spec.md §8).
	got := pqOETF(80.0 / 10000.0)
	want := 0.3469
	if math.Abs(got-want) > 0.001 {
		t.Errorf("pqOETF(80/10000) = %v, want ~%v", got, want)
	}
}

func TestHLGRoundTrip(t *testing.T) {
	for _, e := range []float64{0, 0.02, 1.0 / 12.0, 0.25, 0.5, 1.0} {
		ep := hlgOETF(e)
		back := hlgEOTF(ep)
		if math.Abs(back-e) > 1e-6 {
			t.Errorf("HLG round-trip(%v) = %v, want %v", e, back, e)
		}
	}
}

func TestImplicitScalePQ(t *testing.T) {
	c := Curve{Kind: PQ}
	got := c.ImplicitScale(300, 80)
	want := 10000.0 / 300.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ImplicitScale = %v, want %v", got, want)
	}
}

func TestImplicitScaleGammaIsOne(t *testing.T) {
	c := Curve{Kind: Gamma, Gamma: 2.2}
	if got := c.ImplicitScale(300, 80); got != 1 {
		t.Errorf("ImplicitScale(gamma) = %v, want 1", got)
	}
}

func TestReinhardMonotonic(t *testing.T) {
	const n = 1024
	prev := -1.0
	for i := 0; i <= n; i++ {
		x := float64(i) / float64(n) * 100
		y := x / (1 + x)
		if y <= prev {
			t.Fatalf("reinhard not strictly increasing at x=%v: %v <= %v", x, y, prev)
		}
		prev = y
	}
}
