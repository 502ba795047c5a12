// Package image is the C6 container: a width x height raster owning
// exactly one of three pixel buffer layouts (U8/U16/F32, always RGBA,
// row-major, no padding) plus an exclusively-owned color profile
// (spec.md §3 Image, §4.6).
package image

import (
	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/pixelfmt"
	"colorist.dev/colorist/profile"
)

// Depth is a pixel sample depth. 8/10/12/16 are integer UNorm depths
// stored in the Pixels8/Pixels16 buffer (10/12 packed into 16-bit
// containers); 32 denotes the float32-range PixelsF buffer.
type Depth int

const (
	Depth8  Depth = 8
	Depth10 Depth = 10
	Depth12 Depth = 12
	Depth16 Depth = 16
	DepthF  Depth = 32
)

// Layout identifies which of an Image's three buffers is authoritative.
type Layout int

const (
	LayoutU8 Layout = iota
	LayoutU16
	LayoutF32
)

func (d Depth) pixelfmtDepth() pixelfmt.Depth {
	switch d {
	case Depth10:
		return pixelfmt.Depth10
	case Depth12:
		return pixelfmt.Depth12
	case Depth16:
		return pixelfmt.Depth16
	default:
		return pixelfmt.Depth8
	}
}

// Image is a W x H RGBA raster with exactly one authoritative pixel
// buffer at a time and an exclusively-owned, always-non-nil Profile
// (spec.md §4.6 invariants).
type Image struct {
	Width, Height int
	Depth         Depth
	Profile       *profile.Profile

	layout Layout
	pix8   []byte    // len == W*H*4, authoritative iff layout==LayoutU8
	pix16  []byte    // len == W*H*4*2, authoritative iff layout==LayoutU16
	pixF   []float64 // len == W*H*4, authoritative iff layout==LayoutF32
}

// Create allocates a w x h image at depth. If p is non-nil it is cloned
// (Image owns its profile exclusively, spec.md §3 Image); otherwise a
// stock sRGB profile is built.
func Create(w, h int, depth Depth, p *profile.Profile) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, colorerr.New(colorerr.Validation, "image.Create", "width and height must be positive")
	}
	var owned *profile.Profile
	if p != nil {
		owned = p.Clone()
	} else {
		srgb, err := profile.CreateStock("srgb")
		if err != nil {
			return nil, colorerr.Wrap(colorerr.Arithmetic, "image.Create", err)
		}
		owned = srgb
	}
	img := &Image{Width: w, Height: h, Depth: depth, Profile: owned}
	img.allocate(layoutForDepth(depth))
	return img, nil
}

func layoutForDepth(d Depth) Layout {
	if d == DepthF {
		return LayoutF32
	}
	if d == Depth16 || d == Depth10 || d == Depth12 {
		return LayoutU16
	}
	return LayoutU8
}

func (img *Image) allocate(l Layout) {
	n := img.Width * img.Height * 4
	switch l {
	case LayoutU8:
		img.pix8 = make([]byte, n)
	case LayoutU16:
		img.pix16 = make([]byte, n*2)
	case LayoutF32:
		img.pixF = make([]float64, n)
	}
	img.layout = l
}

// Destroy releases the image's buffers and profile reference. Go's
// garbage collector reclaims the memory; Destroy exists to mirror the
// explicit lifecycle spec.md §4.6 names and to make "this image is no
// longer usable" an explicit, greppable call site.
func (img *Image) Destroy() {
	img.pix8, img.pix16, img.pixF = nil, nil, nil
	img.Profile = nil
}

// SetPixel writes one RGBA pixel (components in [0,1]) at (x,y) into
// whichever buffer is currently authoritative, converting as needed.
func (img *Image) SetPixel(x, y int, r, g, b, a float64) error {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return colorerr.New(colorerr.Validation, "image.SetPixel", "coordinate out of bounds")
	}
	idx := (y*img.Width + x) * 4
	switch img.layout {
	case LayoutF32:
		img.pixF[idx], img.pixF[idx+1], img.pixF[idx+2], img.pixF[idx+3] = r, g, b, a
	case LayoutU16:
		packed := pixelfmt.FloatToUNorm([]float64{r, g, b, a}, img.Depth.pixelfmtDepth(), 4)
		copy(img.pix16[idx*2:idx*2+8], packed)
	default:
		packed := pixelfmt.FloatToUNorm([]float64{r, g, b, a}, pixelfmt.Depth8, 4)
		copy(img.pix8[idx:idx+4], packed)
	}
	return nil
}

// AdjustRect clips a requested (x,y,w,h) rectangle to the image bounds,
// returning the clipped rectangle and whether it is non-empty (spec.md
// §4.6 adjustRect).
func (img *Image) AdjustRect(x, y, w, h int) (rx, ry, rw, rh int, nonEmpty bool) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > img.Width {
		w = img.Width - x
	}
	if y+h > img.Height {
		h = img.Height - y
	}
	if w <= 0 || h <= 0 || x >= img.Width || y >= img.Height {
		return 0, 0, 0, 0, false
	}
	return x, y, w, h, true
}

// Crop extracts the (x,y,w,h) sub-rectangle (clipped via AdjustRect)
// into a new Image. If keepSrc is false the receiver's buffers are
// released after the copy (spec.md §4.6 crop(x,y,w,h,keepSrc)).
func (img *Image) Crop(x, y, w, h int, keepSrc bool) (*Image, error) {
	rx, ry, rw, rh, ok := img.AdjustRect(x, y, w, h)
	if !ok {
		return nil, colorerr.New(colorerr.Validation, "image.Crop", "crop rectangle does not intersect the image")
	}
	out, err := Create(rw, rh, img.Depth, img.Profile)
	if err != nil {
		return nil, err
	}
	out.allocate(img.layout)

	for row := 0; row < rh; row++ {
		srcY := ry + row
		switch img.layout {
		case LayoutF32:
			srcOff := (srcY*img.Width + rx) * 4
			dstOff := row * rw * 4
			copy(out.pixF[dstOff:dstOff+rw*4], img.pixF[srcOff:srcOff+rw*4])
		case LayoutU16:
			srcOff := (srcY*img.Width + rx) * 4 * 2
			dstOff := row * rw * 4 * 2
			copy(out.pix16[dstOff:dstOff+rw*4*2], img.pix16[srcOff:srcOff+rw*4*2])
		default:
			srcOff := (srcY*img.Width + rx) * 4
			dstOff := row * rw * 4
			copy(out.pix8[dstOff:dstOff+rw*4], img.pix8[srcOff:srcOff+rw*4])
		}
	}

	if !keepSrc {
		img.pix8, img.pix16, img.pixF = nil, nil, nil
	}
	return out, nil
}

// Rotate returns a new Image rotated clockwise by cwTurns*90 degrees
// (spec.md §4.6 rotate(cwTurns)). cwTurns is reduced mod 4.
func (img *Image) Rotate(cwTurns int) (*Image, error) {
	turns := ((cwTurns % 4) + 4) % 4
	if turns == 0 {
		out, err := Create(img.Width, img.Height, img.Depth, img.Profile)
		if err != nil {
			return nil, err
		}
		out.allocate(img.layout)
		img.copyBufferInto(out)
		return out, nil
	}

	w, h := img.Width, img.Height
	outW, outH := w, h
	if turns == 1 || turns == 3 {
		outW, outH = h, w
	}
	out, err := Create(outW, outH, img.Depth, img.Profile)
	if err != nil {
		return nil, err
	}
	out.allocate(img.layout)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1: // 90 cw
				dx, dy = h-1-y, x
			case 2: // 180
				dx, dy = w-1-x, h-1-y
			case 3: // 270 cw
				dx, dy = y, w-1-x
			}
			img.copyPixel(x, y, out, dx, dy)
		}
	}
	return out, nil
}

func (img *Image) copyBufferInto(out *Image) {
	switch img.layout {
	case LayoutF32:
		copy(out.pixF, img.pixF)
	case LayoutU16:
		copy(out.pix16, img.pix16)
	default:
		copy(out.pix8, img.pix8)
	}
}

func (img *Image) copyPixel(sx, sy int, out *Image, dx, dy int) {
	sIdx := sy*img.Width + sx
	dIdx := dy*out.Width + dx
	switch img.layout {
	case LayoutF32:
		copy(out.pixF[dIdx*4:dIdx*4+4], img.pixF[sIdx*4:sIdx*4+4])
	case LayoutU16:
		copy(out.pix16[dIdx*8:dIdx*8+8], img.pix16[sIdx*8:sIdx*8+8])
	default:
		copy(out.pix8[dIdx*4:dIdx*4+4], img.pix8[sIdx*4:sIdx*4+4])
	}
}

// PrepareReadPixels moves the authoritative buffer (converting if
// necessary) to the requested layout and returns it as float64 RGBA for
// read-only consumption (spec.md §4.6 prepareReadPixels).
func (img *Image) PrepareReadPixels(l Layout) []float64 {
	img.convertTo(l)
	return img.floatView()
}

// PrepareWritePixels moves the authoritative buffer to the requested
// layout and returns a float64 RGBA view a caller may mutate in place;
// callers must call CommitWrite after writing to re-pack it into the
// native layout (spec.md §4.6 prepareWritePixels).
func (img *Image) PrepareWritePixels(l Layout) []float64 {
	img.convertTo(l)
	if l == LayoutF32 {
		return img.pixF
	}
	return img.floatView()
}

// CommitWrite re-packs a float64 view obtained from PrepareWritePixels
// back into the image's native non-float buffer; a no-op when the
// authoritative layout is already F32 (the view is the buffer itself).
func (img *Image) CommitWrite(view []float64) {
	n := img.Width * img.Height * 4
	switch img.layout {
	case LayoutU8:
		img.pix8 = pixelfmt.FloatToUNorm(view, pixelfmt.Depth8, n)
	case LayoutU16:
		img.pix16 = pixelfmt.FloatToUNorm(view, img.Depth.pixelfmtDepth(), n)
	case LayoutF32:
		// view IS img.pixF; nothing to do.
	}
}

func (img *Image) floatView() []float64 {
	n := img.Width * img.Height * 4
	switch img.layout {
	case LayoutF32:
		return img.pixF
	case LayoutU16:
		return pixelfmt.UNormToFloat(img.pix16, img.Depth.pixelfmtDepth(), n)
	default:
		return pixelfmt.UNormToFloat(img.pix8, pixelfmt.Depth8, n)
	}
}

// convertTo makes l the authoritative layout, converting the current
// buffer if it differs and discarding the stale one.
func (img *Image) convertTo(l Layout) {
	if img.layout == l {
		return
	}
	view := img.floatView()
	img.pix8, img.pix16, img.pixF = nil, nil, nil
	img.layout = l
	n := img.Width * img.Height * 4
	switch l {
	case LayoutF32:
		img.pixF = view
	case LayoutU16:
		img.pix16 = pixelfmt.FloatToUNorm(view, img.Depth.pixelfmtDepth(), n)
	default:
		img.pix8 = pixelfmt.FloatToUNorm(view, pixelfmt.Depth8, n)
	}
}
