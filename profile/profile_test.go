package profile

import (
	"math"
	"testing"

	"colorist.dev/colorist/icc"
	"colorist.dev/colorist/transfer"
)

func TestCreateStockSRGB(t *testing.T) {
	p, err := CreateStock("sRGB")
	if err != nil {
		t.Fatalf("CreateStock(sRGB) failed: %v", err)
	}
	if p.Curve.Kind != transfer.Gamma || p.Curve.Gamma != 2.4 {
		t.Errorf("sRGB curve = %+v, want Gamma 2.4", p.Curve)
	}
	if p.MaxLuminance != 300 {
		t.Errorf("sRGB maxLuminance = %d, want 300", p.MaxLuminance)
	}
}

func TestCreateStockUnknown(t *testing.T) {
	if _, err := CreateStock("not-a-profile"); err == nil {
		t.Fatal("expected error for unknown stock id")
	}
}

func TestCreateRejectsZeroPrimary(t *testing.T) {
	bad := Primaries{Rx: 0, Ry: 0.33, Gx: 0.3, Gy: 0.6, Bx: 0.15, By: 0.06, Wx: 0.3127, Wy: 0.329}
	if _, err := Create(bad, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.2}, 100, "bad"); err == nil {
		t.Fatal("expected error for zero chromaticity component")
	}
}

func TestCreateRejectsNonPositiveGamma(t *testing.T) {
	if _, err := Create(PrimariesBT709, transfer.Curve{Kind: transfer.Gamma, Gamma: 0}, 100, "bad"); err == nil {
		t.Fatal("expected error for non-positive gamma")
	}
}

func TestRGBToXYZRoundTrip(t *testing.T) {
	p, err := CreateStock("bt709")
	if err != nil {
		t.Fatalf("CreateStock failed: %v", err)
	}
	got := p.RGBToXYZ.Mul(p.XYZToRGB)
	for i := 0; i < 9; i++ {
		want := 0.0
		if i%4 == 0 {
			want = 1.0
		}
		if math.Abs(got[i]-want) > 1e-5 {
			t.Errorf("RGBToXYZ*XYZToRGB[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := CreateStock("sRGB")
	if err != nil {
		t.Fatalf("CreateStock failed: %v", err)
	}
	q := p.Clone()
	q.Description = "changed"
	if p.Description == q.Description {
		t.Error("Clone shares state with original")
	}
}

func TestMatchesSameStock(t *testing.T) {
	a, _ := CreateStock("sRGB")
	b, _ := CreateStock("sRGB")
	if !Matches(a, b) {
		t.Error("two sRGB profiles should match")
	}
}

func TestMatchesDifferentGamma(t *testing.T) {
	a, _ := Create(PrimariesBT709, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.2}, 100, "a")
	b, _ := Create(PrimariesBT709, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.4}, 100, "b")
	if Matches(a, b) {
		t.Error("profiles with different gamma should not match")
	}
}

func TestSetGammaUpdatesCurve(t *testing.T) {
	p, _ := CreateStock("sRGB")
	if err := p.SetGamma(1.8); err != nil {
		t.Fatalf("SetGamma failed: %v", err)
	}
	if p.Curve.Gamma != 1.8 {
		t.Errorf("Curve.Gamma = %v, want 1.8", p.Curve.Gamma)
	}
}

func TestSetLuminance(t *testing.T) {
	p, _ := CreateStock("sRGB")
	p.SetLuminance(1000)
	if p.MaxLuminance != 1000 {
		t.Errorf("MaxLuminance = %d, want 1000", p.MaxLuminance)
	}
}

func TestWriteProducesDecodableBytes(t *testing.T) {
	p, err := CreateStock("sRGB")
	if err != nil {
		t.Fatalf("CreateStock failed: %v", err)
	}
	data, err := p.Write()
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Write produced empty data")
	}
	q, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse(Write(p)) failed: %v", err)
	}
	if !q.Primaries.nearEqual(p.Primaries, 1e-3) {
		t.Errorf("round-tripped primaries = %+v, want %+v", q.Primaries, p.Primaries)
	}
}

func TestParseUsesDefaultDescriptionWhenMissing(t *testing.T) {
	p, _ := CreateStock("sRGB")
	p.RemoveTag(icc.ProfileDescription) // drop the desc tag so Parse must fall back to the default
	data, err := p.Write()
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	q, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if q.Description == "" {
		t.Error("Description should never be empty after Parse")
	}
}

func TestSetMLUChangesDescription(t *testing.T) {
	p, _ := CreateStock("sRGB")
	data, err := p.Write()
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	q, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	q.SetMLU(icc.ProfileDescription, "en", "US", "Custom Display")
	if q.Description != "Custom Display" {
		t.Errorf("Description = %q, want %q", q.Description, "Custom Display")
	}
}

func TestHasPQSignatureFalseForSynthetic(t *testing.T) {
	p, _ := CreateStock("sRGB")
	if p.HasPQSignature() {
		t.Error("synthetic profile should never report a PQ signature")
	}
}

func TestCurveSignatureUnknownByDefault(t *testing.T) {
	p, _ := CreateStock("sRGB")
	data, _ := p.Write()
	q, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := q.CurveSignature(); got != "Unknown" {
		t.Errorf("CurveSignature = %q, want Unknown for a plain gamma curve", got)
	}
}
