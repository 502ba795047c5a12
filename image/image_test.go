package image

import (
	"math"
	"testing"
)

func TestCreateDefaultsToStockSRGB(t *testing.T) {
	img, err := Create(4, 4, Depth8, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if img.Profile == nil {
		t.Fatal("Image.Profile must never be nil")
	}
	if img.Profile.Description != "sRGB" {
		t.Fatalf("Profile.Description = %q, want sRGB", img.Profile.Description)
	}
}

func TestCreateRejectsNonPositiveDims(t *testing.T) {
	if _, err := Create(0, 4, Depth8, nil); err == nil {
		t.Fatal("Create(0,4,...) should have errored")
	}
}

func TestSetPixelRoundTrip8(t *testing.T) {
	img, _ := Create(2, 2, Depth8, nil)
	if err := img.SetPixel(1, 1, 0.5, 0.25, 0.75, 1); err != nil {
		t.Fatalf("SetPixel: %v", err)
	}
	view := img.PrepareReadPixels(LayoutF32)
	idx := (1*2 + 1) * 4
	if math.Abs(view[idx]-0.5) > 0.01 {
		t.Fatalf("red channel = %v, want ~0.5", view[idx])
	}
}

func TestSetPixelOutOfBounds(t *testing.T) {
	img, _ := Create(2, 2, Depth8, nil)
	if err := img.SetPixel(5, 5, 0, 0, 0, 1); err == nil {
		t.Fatal("SetPixel out of bounds should error")
	}
}

func TestCropClipsToBounds(t *testing.T) {
	img, _ := Create(10, 10, Depth8, nil)
	out, err := img.Crop(5, 5, 100, 100, true)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if out.Width != 5 || out.Height != 5 {
		t.Fatalf("Crop dims = %dx%d, want 5x5", out.Width, out.Height)
	}
}

func TestCropPreservesPixels(t *testing.T) {
	img, _ := Create(4, 4, Depth8, nil)
	img.SetPixel(2, 2, 1, 0, 0, 1)
	out, err := img.Crop(2, 2, 2, 2, true)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	view := out.PrepareReadPixels(LayoutF32)
	if view[0] < 0.99 {
		t.Fatalf("cropped red channel = %v, want ~1", view[0])
	}
}

func TestRotate90SwapsDims(t *testing.T) {
	img, _ := Create(4, 2, Depth8, nil)
	out, err := img.Rotate(1)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if out.Width != 2 || out.Height != 4 {
		t.Fatalf("Rotate(1) dims = %dx%d, want 2x4", out.Width, out.Height)
	}
}

func TestRotate360IsIdentity(t *testing.T) {
	img, _ := Create(3, 3, Depth8, nil)
	img.SetPixel(0, 0, 1, 0, 0, 1)
	out, err := img.Rotate(4)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	a := img.PrepareReadPixels(LayoutF32)
	b := out.PrepareReadPixels(LayoutF32)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("Rotate(4) should be identity, differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAdjustRectClips(t *testing.T) {
	img, _ := Create(10, 10, Depth8, nil)
	x, y, w, h, ok := img.AdjustRect(-2, -2, 5, 5)
	if !ok {
		t.Fatal("AdjustRect should report non-empty overlap")
	}
	if x != 0 || y != 0 || w != 3 || h != 3 {
		t.Fatalf("AdjustRect = (%d,%d,%d,%d), want (0,0,3,3)", x, y, w, h)
	}
}

func TestAdjustRectEmpty(t *testing.T) {
	img, _ := Create(10, 10, Depth8, nil)
	_, _, _, _, ok := img.AdjustRect(20, 20, 5, 5)
	if ok {
		t.Fatal("AdjustRect should report empty overlap")
	}
}

func TestPrepareReadWriteRoundTrip16(t *testing.T) {
	img, _ := Create(2, 2, Depth16, nil)
	w := img.PrepareWritePixels(LayoutF32)
	for i := range w {
		w[i] = 0.5
	}
	img.CommitWrite(w)
	r := img.PrepareReadPixels(LayoutU16)
	for _, v := range r {
		if math.Abs(v-0.5) > 0.001 {
			t.Fatalf("round-trip mismatch: %v", v)
		}
	}
}
