package codec

import (
	"bytes"
	stdjpeg "image/jpeg"

	"colorist.dev/colorist/image"
)

// JPEGPlugin wraps the standard library's baseline JPEG codec.
type JPEGPlugin struct{}

func (JPEGPlugin) Name() string          { return "jpeg" }
func (JPEGPlugin) Description() string   { return "JPEG (ITU-T T.81)" }
func (JPEGPlugin) MIMEType() string      { return "image/jpeg" }
func (JPEGPlugin) Extensions() []string  { return []string{"jpg", "jpeg"} }
func (JPEGPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8}, Best: 8}
}

func (JPEGPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	img, err := stdjpeg.Decode(bytes.NewReader(rawInput))
	if err != nil {
		return nil, decodeErr("codec.jpeg.Read", err)
	}
	return fromStdImage(img)
}

func (JPEGPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	quality := params.Quality
	if quality <= 0 {
		quality = 90
	}
	out := newBuffer()
	if err := stdjpeg.Encode(out, toStdImage(img), &stdjpeg.Options{Quality: quality}); err != nil {
		return nil, encodeErr("codec.jpeg.Write", err)
	}
	return out.Bytes(), nil
}

func (JPEGPlugin) Detect(header []byte) bool {
	return len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF
}
