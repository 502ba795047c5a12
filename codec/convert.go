package codec

import (
	"bytes"
	stdimage "image"
	"image/color"

	"colorist.dev/colorist/colorerr"
	cimage "colorist.dev/colorist/image"
	"colorist.dev/colorist/profile"
)

// fromStdImage copies a decoded Go stdlib image into a colorist Image at
// 8 bits/channel, attaching a stock sRGB profile (codecs this package
// wraps carry no embedded-profile API of their own; PNG's iCCP and JPEG's
// ICC APP2 segments are not read).
func fromStdImage(src stdimage.Image) (*cimage.Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	srgb, err := profile.CreateStock("srgb")
	if err != nil {
		return nil, colorerr.Wrap(colorerr.Arithmetic, "codec.fromStdImage", err)
	}
	img, err := cimage.Create(w, h, cimage.Depth8, srgb)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			_ = img.SetPixel(x, y, float64(r)/65535, float64(g)/65535, float64(b)/65535, float64(a)/65535)
		}
	}
	return img, nil
}

// toStdImage converts a colorist Image to a Go stdlib *image.NRGBA for
// encoders that accept the stdimage.Image interface.
func toStdImage(img *cimage.Image) *stdimage.NRGBA {
	out := stdimage.NewNRGBA(stdimage.Rect(0, 0, img.Width, img.Height))
	view := img.PrepareReadPixels(cimage.LayoutF32)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			o := (y*img.Width + x) * 4
			out.SetNRGBA(x, y, color.NRGBA{
				R: toByte(view[o]),
				G: toByte(view[o+1]),
				B: toByte(view[o+2]),
				A: toByte(view[o+3]),
			})
		}
	}
	return out
}

func toByte(v float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return byte(v*255 + 0.5)
}

func decodeErr(op string, err error) error {
	return colorerr.Wrap(colorerr.External, op, err)
}

func encodeErr(op string, err error) error {
	return colorerr.Wrap(colorerr.External, op, err)
}

func newBuffer() *bytes.Buffer {
	return &bytes.Buffer{}
}
