package mat

import "testing"

func TestInvertRoundTrip(t *testing.T) {
	// BT.709 primaries -> XYZ (D65), a well-conditioned non-degenerate matrix.
	m := Mat3{
		0.4124564, 0.3575761, 0.1804375,
		0.2126729, 0.7151522, 0.0721750,
		0.0193339, 0.1191920, 0.9503041,
	}

	inv, err := m.Invert()
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}

	got := m.Mul(inv)
	want := Identity3()
	if !got.NearEqual(want, 1e-5) {
		t.Errorf("m * inv(m) = %v, want identity within 1e-5", got)
	}
}

func TestInvertSingular(t *testing.T) {
	// Degenerate: third row is a linear combination of the first two.
	m := Mat3{
		1, 0, 0,
		0, 1, 0,
		1, 1, 0,
	}
	if _, err := m.Invert(); err == nil {
		t.Fatal("expected ErrSingular for a degenerate matrix")
	}
}

func TestMulVecIdentity(t *testing.T) {
	v := Vec3{0.25, 0.5, 0.75}
	got := Identity3().MulVec(v)
	if got != v {
		t.Errorf("identity * v = %v, want %v", got, v)
	}
}
