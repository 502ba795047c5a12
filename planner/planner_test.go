package planner

import (
	"os"
	"path/filepath"
	"testing"

	"colorist.dev/colorist/cliparams"
	"colorist.dev/colorist/colorctx"
)

func TestResolveAspectPreservesRatio(t *testing.T) {
	w, h := resolveAspect(200, 100, 400, 0)
	if w != 400 || h != 200 {
		t.Fatalf("resolveAspect = %d,%d, want 400,200", w, h)
	}
}

func TestResolveAspectBothSet(t *testing.T) {
	w, h := resolveAspect(200, 100, 50, 50)
	if w != 50 || h != 50 {
		t.Fatalf("resolveAspect = %d,%d, want 50,50", w, h)
	}
}

func TestParsePrimariesStockName(t *testing.T) {
	p, err := parsePrimaries("bt2020")
	if err != nil {
		t.Fatalf("parsePrimaries: %v", err)
	}
	if p.Rx != 0.708 {
		t.Fatalf("Rx = %v, want 0.708", p.Rx)
	}
}

func TestParsePrimariesExplicitFloats(t *testing.T) {
	p, err := parsePrimaries("0.64,0.33,0.3,0.6,0.15,0.06,0.3127,0.329")
	if err != nil {
		t.Fatalf("parsePrimaries: %v", err)
	}
	if p.Rx != 0.64 || p.Wy != 0.329 {
		t.Fatalf("unexpected parsed primaries: %+v", p)
	}
}

func TestParseGammaFlagSource(t *testing.T) {
	c, err := parseGammaFlag("source", 2.4)
	if err != nil {
		t.Fatalf("parseGammaFlag: %v", err)
	}
	if c.Gamma != 2.4 {
		t.Fatalf("Gamma = %v, want 2.4", c.Gamma)
	}
}

func TestParseLuminanceFlagUnspecified(t *testing.T) {
	n, err := parseLuminanceFlag("u", 300)
	if err != nil {
		t.Fatalf("parseLuminanceFlag: %v", err)
	}
	if n != 0 {
		t.Fatalf("luminance = %d, want 0", n)
	}
}

func TestCubeSideOfAccepts64(t *testing.T) {
	side, err := cubeSideOf(64)
	if err != nil || side != 8 {
		t.Fatalf("cubeSideOf(64) = %d, %v, want 8, nil", side, err)
	}
}

func TestCubeSideOfRejectsNonSquare(t *testing.T) {
	if _, err := cubeSideOf(10); err == nil {
		t.Fatal("expected error for non-square dims")
	}
}

func TestGenerateWritesFlatColorPNG(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "flat.png")
	ctx := colorctx.New()
	p, err := cliparams.Parse([]string{"generate", "#ff0000,4x4", out})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Generate(ctx, p); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestCalcPrintsColor(t *testing.T) {
	ctx := colorctx.New()
	p, err := cliparams.Parse([]string{"calc", "#ffffff"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Calc(ctx, p); err != nil {
		t.Fatalf("Calc: %v", err)
	}
}

func TestHaldWritesIdentityLUT(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hald.png")
	ctx := colorctx.New()
	p, err := cliparams.Parse([]string{"hald", "-b", "4", out})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Hald(ctx, p); err != nil {
		t.Fatalf("Hald: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestConvertRoundTripsPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	ctx := colorctx.New()

	genParams, err := cliparams.Parse([]string{"generate", "#336699,8x8", src})
	if err != nil {
		t.Fatalf("Parse generate: %v", err)
	}
	if err := Generate(ctx, genParams); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	convParams, err := cliparams.Parse([]string{"convert", src, dst})
	if err != nil {
		t.Fatalf("Parse convert: %v", err)
	}
	if err := Convert(ctx, convParams); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestIdentifyPrintsProfile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	ctx := colorctx.New()
	genParams, err := cliparams.Parse([]string{"generate", "#112233,2x2", src})
	if err != nil {
		t.Fatalf("Parse generate: %v", err)
	}
	if err := Generate(ctx, genParams); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	idParams, err := cliparams.Parse([]string{"identify", src})
	if err != nil {
		t.Fatalf("Parse identify: %v", err)
	}
	if err := Identify(ctx, idParams); err != nil {
		t.Fatalf("Identify: %v", err)
	}
}
