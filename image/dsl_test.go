package image

import (
	"math"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	img, err := ParseString("#ff0000", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	if math.Abs(view[0]-1) > 0.01 || view[1] > 0.01 || view[2] > 0.01 {
		t.Fatalf("expected pure red, got %v", view[:4])
	}
}

func TestParseSizeDirective(t *testing.T) {
	img, err := ParseString("#00ff00,4x3", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if img.Width != 4 || img.Height != 3 {
		t.Fatalf("dims = %dx%d, want 4x3", img.Width, img.Height)
	}
}

func TestParseRepeat(t *testing.T) {
	img, err := ParseString("#ff0000x3,2x3", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if img.Width != 2 || img.Height != 3 {
		t.Fatalf("dims = %dx%d, want 2x3", img.Width, img.Height)
	}
}

func TestParseDecimalTuple(t *testing.T) {
	img, err := ParseString("(128,64,32)", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	if math.Abs(view[0]-128.0/255) > 0.01 {
		t.Fatalf("red channel = %v, want ~%v", view[0], 128.0/255)
	}
}

func TestParseFloatFunc(t *testing.T) {
	img, err := ParseString("f(0.1,0.2,0.3)", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	if math.Abs(view[0]-0.1) > 1e-6 || math.Abs(view[1]-0.2) > 1e-6 {
		t.Fatalf("float color mismatch: %v", view[:4])
	}
}

func TestParseGradient(t *testing.T) {
	img, err := ParseString("#000000.4.#ffffff,4x1", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	if view[0] > view[4] {
		t.Fatalf("gradient should increase left to right: %v then %v", view[0], view[4])
	}
}

func TestParseStripes(t *testing.T) {
	img, err := ParseString("#ff0000|#0000ff,2x2", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if img.Width != 2 {
		t.Fatalf("width = %d, want 2", img.Width)
	}
}

func TestParseResponseFile(t *testing.T) {
	reader := func(name string) (string, error) {
		if name == "colors.txt" {
			return "#00ff00", nil
		}
		return "", nil
	}
	img, err := ParseString("@colors.txt", nil, reader)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	if view[1] < 0.99 {
		t.Fatalf("expected green, got %v", view[:4])
	}
}

func TestParseRotation(t *testing.T) {
	img, err := ParseString("#ff0000,4x2,cw", nil, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if img.Width != 2 || img.Height != 4 {
		t.Fatalf("rotated dims = %dx%d, want 2x4", img.Width, img.Height)
	}
}

func TestParseUnrecognizedErrors(t *testing.T) {
	if _, err := ParseString("not-a-color", nil, nil); err == nil {
		t.Fatal("expected parse error for unrecognized literal")
	}
}
