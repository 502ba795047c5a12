package codec

import (
	"bytes"
	stdpng "image/png"

	"colorist.dev/colorist/image"
)

// PNGPlugin wraps the standard library's PNG codec (spec.md §1: codec
// wire handling is an external collaborator; colorist only needs its
// decode(bytes)->Image / encode(Image)->bytes contract satisfied).
type PNGPlugin struct{}

func (PNGPlugin) Name() string        { return "png" }
func (PNGPlugin) Description() string { return "Portable Network Graphics" }
func (PNGPlugin) MIMEType() string    { return "image/png" }
func (PNGPlugin) Extensions() []string {
	return []string{"png"}
}
func (PNGPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8, 16}, Best: 16}
}

func (PNGPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	img, err := stdpng.Decode(bytes.NewReader(rawInput))
	if err != nil {
		return nil, decodeErr("codec.png.Read", err)
	}
	return fromStdImage(img)
}

func (PNGPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	out := newBuffer()
	if err := stdpng.Encode(out, toStdImage(img)); err != nil {
		return nil, encodeErr("codec.png.Write", err)
	}
	return out.Bytes(), nil
}

func (PNGPlugin) Detect(header []byte) bool {
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(header, sig)
}
