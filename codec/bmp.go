package codec

import (
	"bytes"

	"golang.org/x/image/bmp"

	"colorist.dev/colorist/image"
)

// BMPPlugin wraps golang.org/x/image/bmp.
type BMPPlugin struct{}

func (BMPPlugin) Name() string         { return "bmp" }
func (BMPPlugin) Description() string  { return "Windows Bitmap" }
func (BMPPlugin) MIMEType() string     { return "image/bmp" }
func (BMPPlugin) Extensions() []string { return []string{"bmp"} }
func (BMPPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8}, Best: 8}
}

func (BMPPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	img, err := bmp.Decode(bytes.NewReader(rawInput))
	if err != nil {
		return nil, decodeErr("codec.bmp.Read", err)
	}
	return fromStdImage(img)
}

func (BMPPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	out := newBuffer()
	if err := bmp.Encode(out, toStdImage(img)); err != nil {
		return nil, encodeErr("codec.bmp.Write", err)
	}
	return out.Bytes(), nil
}

func (BMPPlugin) Detect(header []byte) bool {
	return len(header) >= 2 && header[0] == 'B' && header[1] == 'M'
}
