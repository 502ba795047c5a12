package codec

import (
	"bytes"

	hhtiff "github.com/hhrutter/tiff"
	xtiff "golang.org/x/image/tiff"

	"colorist.dev/colorist/image"
)

// TIFFPlugin decodes through github.com/hhrutter/tiff, which accepts a
// wider variety of real-world TIFF variants (the library pdfcpu relies
// on for the same reason) than golang.org/x/image/tiff's decoder; it
// encodes through golang.org/x/image/tiff, whose encoder only supports
// 8-bit output — Write quantizes every source to 8 bits/channel through
// toStdImage.
type TIFFPlugin struct{}

func (TIFFPlugin) Name() string         { return "tiff" }
func (TIFFPlugin) Description() string  { return "Tagged Image File Format" }
func (TIFFPlugin) MIMEType() string     { return "image/tiff" }
func (TIFFPlugin) Extensions() []string { return []string{"tif", "tiff"} }
func (TIFFPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8}, Best: 8}
}

func (TIFFPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	img, err := hhtiff.Decode(bytes.NewReader(rawInput))
	if err != nil {
		return nil, decodeErr("codec.tiff.Read", err)
	}
	return fromStdImage(img)
}

func (TIFFPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	out := newBuffer()
	opts := &xtiff.Options{Compression: xtiff.Deflate, Predictor: true}
	if err := xtiff.Encode(out, toStdImage(img), opts); err != nil {
		return nil, encodeErr("codec.tiff.Write", err)
	}
	return out.Bytes(), nil
}

func (TIFFPlugin) Detect(header []byte) bool {
	if len(header) < 4 {
		return false
	}
	leLE := header[0] == 'I' && header[1] == 'I' && header[2] == 42 && header[3] == 0
	beBE := header[0] == 'M' && header[1] == 'M' && header[2] == 0 && header[3] == 42
	return leLE || beBE
}
