package cliparams

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConvertBasicFlags(t *testing.T) {
	p, err := Parse([]string{"convert", "-b", "16", "-q", "90", "in.png", "out.png"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Action != ActionConvert {
		t.Fatalf("Action = %v, want convert", p.Action)
	}
	if p.BPC != 16 || p.Quality != 90 {
		t.Fatalf("BPC/Quality = %d/%d, want 16/90", p.BPC, p.Quality)
	}
	if len(p.Args) != 2 || p.Args[0] != "in.png" || p.Args[1] != "out.png" {
		t.Fatalf("Args = %v, want [in.png out.png]", p.Args)
	}
}

func TestParseRejectsUnknownAction(t *testing.T) {
	if _, err := Parse([]string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestParseRejectsEmptyArgs(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestParseValidatesBPC(t *testing.T) {
	if _, err := Parse([]string{"convert", "-b", "11"}); err == nil {
		t.Fatal("expected validation error for bpc=11")
	}
}

func TestParseValidatesYUV(t *testing.T) {
	if _, err := Parse([]string{"convert", "--yuv", "bogus"}); err == nil {
		t.Fatal("expected validation error for bad yuv value")
	}
}

func TestParseResizeTriple(t *testing.T) {
	p, err := Parse([]string{"convert", "--resize", "640,480,cubic"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ResizeW != 640 || p.ResizeH != 480 || p.ResizeFilter != "cubic" {
		t.Fatalf("resize = %d,%d,%s", p.ResizeW, p.ResizeH, p.ResizeFilter)
	}
}

func TestParseRectFourFields(t *testing.T) {
	p, err := Parse([]string{"convert", "-z", "10,20,100,200"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.CropSet || p.CropX != 10 || p.CropY != 20 || p.CropW != 100 || p.CropH != 200 {
		t.Fatalf("crop = %+v", p)
	}
}

func TestParseStripTagsSplitsOnComma(t *testing.T) {
	p, err := Parse([]string{"convert", "-s", "desc,copyright"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.StripTags) != 2 || p.StripTags[0] != "desc" || p.StripTags[1] != "copyright" {
		t.Fatalf("StripTags = %v", p.StripTags)
	}
}

func TestParseConfigFileSuppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "defaults.yaml")
	if err := os.WriteFile(cfgPath, []byte("quality: 75\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	p, err := Parse([]string{"convert", "--config", cfgPath})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Quality != 75 {
		t.Fatalf("Quality = %d, want 75 from config file", p.Quality)
	}
}

func TestParseFlagOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "defaults.yaml")
	if err := os.WriteFile(cfgPath, []byte("quality: 75\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	p, err := Parse([]string{"convert", "--config", cfgPath, "-q", "50"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Quality != 50 {
		t.Fatalf("Quality = %d, want 50 (flag overrides config)", p.Quality)
	}
}
