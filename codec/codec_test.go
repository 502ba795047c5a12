package codec

import (
	"bytes"
	stdpng "image/png"
	stdcolor "image"
	"image/color"
	"testing"

	"colorist.dev/colorist/image"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdcolor.NewNRGBA(stdcolor.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := stdpng.Encode(&buf, img); err != nil {
		t.Fatalf("encodeTestPNG: %v", err)
	}
	return buf.Bytes()
}

func TestRegistryByExtension(t *testing.T) {
	r := NewDefaultRegistry()
	p, ok := r.ByExtension(".PNG")
	if !ok || p.Name() != "png" {
		t.Fatalf("ByExtension(.PNG) = %v, %v", p, ok)
	}
}

func TestRegistrySniffPNG(t *testing.T) {
	r := NewDefaultRegistry()
	raw := encodeTestPNG(t, 2, 2)
	p, ok := r.Sniff(raw)
	if !ok || p.Name() != "png" {
		t.Fatalf("Sniff should recognize a PNG signature, got %v %v", p, ok)
	}
}

func TestResolveExtensionBeforeSniff(t *testing.T) {
	r := NewDefaultRegistry()
	raw := encodeTestPNG(t, 2, 2)
	p, err := r.Resolve("", "photo.jpg", raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Name() != "jpeg" {
		t.Fatalf("extension should win over sniff: got %s", p.Name())
	}
}

func TestResolveFallsBackToSniff(t *testing.T) {
	r := NewDefaultRegistry()
	raw := encodeTestPNG(t, 2, 2)
	p, err := r.Resolve("", "noextension", raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Name() != "png" {
		t.Fatalf("Resolve should have sniffed png, got %s", p.Name())
	}
}

func TestResolveUnknownErrors(t *testing.T) {
	r := NewDefaultRegistry()
	if _, err := r.Resolve("", "mystery.xyz", []byte{1, 2, 3}); err == nil {
		t.Fatal("Resolve should error for an unrecognizable format")
	}
}

func TestPNGRoundTrip(t *testing.T) {
	raw := encodeTestPNG(t, 3, 3)
	var p PNGPlugin
	img, err := p.Read(Env{}, raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if img.Width != 3 || img.Height != 3 {
		t.Fatalf("decoded dims = %dx%d, want 3x3", img.Width, img.Height)
	}
	out, err := p.Write(Env{}, img, WriteParams{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Write produced no bytes")
	}
}

func TestWebPWriteReturnsExternalError(t *testing.T) {
	img, _ := image.Create(2, 2, image.Depth8, nil)
	var p WebPPlugin
	if _, err := p.Write(Env{}, img, WriteParams{}); err == nil {
		t.Fatal("WebP Write should error: no pure-Go encoder is linked")
	}
}

func TestStubPluginsReportMissingCodec(t *testing.T) {
	if _, err := JP2Plugin.Read(Env{}, nil); err == nil {
		t.Fatal("JP2Plugin.Read should error")
	}
	if _, err := AVIFPlugin.Write(Env{}, nil, WriteParams{}); err == nil {
		t.Fatal("AVIFPlugin.Write should error")
	}
}

func TestDepthPolicyClamp(t *testing.T) {
	dp := DepthPolicy{Allowed: []int{8, 16}, Best: 16}
	if got := dp.Clamp(12); got != 8 {
		t.Fatalf("Clamp(12) = %d, want 8", got)
	}
	if got := dp.Clamp(16); got != 16 {
		t.Fatalf("Clamp(16) = %d, want 16", got)
	}
}
