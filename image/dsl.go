package image

import (
	"strconv"
	"strings"

	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/mat"
	"colorist.dev/colorist/profile"
)

// FileReader resolves an `@file` response-file token to its contents
// (spec.md §6.2); callers inject it rather than image doing file I/O
// itself, keeping DSL parsing codec/filesystem agnostic.
type FileReader func(name string) (string, error)

type rgba struct{ r, g, b, a float64 }

// ParseString builds an Image from the DSL spec.md §6.2 describes:
// hex/decimal/rgb()/rgba()/rgb16()/rgba16()/f()/float()/xyz()/xyy()
// color literals, `A..B`/`A.N.B` gradients, `WxH` size, `xN` repeat,
// `cw`/`ccw` rotation, and `|`/`/`-delimited vertical stripes. dst is the
// profile attached to the resulting Image (and the target of any xyz()/
// xyy() conversions); read resolves `@file` tokens.
func ParseString(s string, dst *profile.Profile, read FileReader) (*Image, error) {
	expanded, err := expandFiles(s, read, 0)
	if err != nil {
		return nil, err
	}

	rotation, body := extractRotation(expanded)

	width, height, body := extractSize(body)

	stripes := splitTopLevel(body, "|/")
	if len(stripes) == 0 {
		return nil, colorerr.New(colorerr.Validation, "image.ParseString", "empty color description")
	}

	columns := make([][]rgba, len(stripes))
	colorSum := 0
	for i, stripe := range stripes {
		colors, err := parseStripe(stripe, dst)
		if err != nil {
			return nil, err
		}
		if len(colors) == 0 {
			return nil, colorerr.New(colorerr.Validation, "image.ParseString", "stripe produced no colors")
		}
		columns[i] = colors
		colorSum += len(colors)
	}

	// Default width gives every distinct color in every stripe its own
	// pixel column (so "#a..#b" alone renders a visible gradient);
	// default height is a single row. An explicit WxH directive always
	// wins.
	w, h := width, height
	if w <= 0 {
		w = colorSum
	}
	if h <= 0 {
		h = 1
	}

	img, err := Create(w, h, Depth8, dst)
	if err != nil {
		return nil, err
	}
	img.convertTo(LayoutF32)

	// Each stripe owns an equal-width vertical band of the image; within
	// a band its color sequence subdivides that band horizontally (so a
	// single color fills the whole band, and a gradient/list of N colors
	// runs left-to-right across N equal sub-columns, full height).
	stripeWidth := w / len(columns)
	if stripeWidth <= 0 {
		stripeWidth = 1
	}
	for ci, colors := range columns {
		bandX0 := ci * stripeWidth
		bandX1 := bandX0 + stripeWidth
		if ci == len(columns)-1 {
			bandX1 = w
		}
		bandW := bandX1 - bandX0
		for x := bandX0; x < bandX1 && x < w; x++ {
			localX := x - bandX0
			c := colors[scaleIndex(localX, bandW, len(colors))]
			for y := 0; y < h; y++ {
				_ = img.SetPixel(x, y, c.r, c.g, c.b, c.a)
			}
		}
	}

	if rotation != 0 {
		rotated, err := img.Rotate(rotation)
		if err != nil {
			return nil, err
		}
		return rotated, nil
	}
	return img, nil
}

func scaleIndex(y, h, n int) int {
	if n == 1 {
		return 0
	}
	idx := y * n / h
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func expandFiles(s string, read FileReader, depth int) (string, error) {
	if depth > 8 {
		return "", colorerr.New(colorerr.Validation, "image.ParseString", "@file response-file nesting too deep")
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") {
		return s, nil
	}
	if read == nil {
		return "", colorerr.New(colorerr.Validation, "image.ParseString", "@file token given with no file reader")
	}
	name := strings.TrimSpace(s[1:])
	content, err := read(name)
	if err != nil {
		return "", colorerr.Wrap(colorerr.Input, "image.ParseString", err)
	}
	return expandFiles(content, read, depth+1)
}

// extractRotation removes a standalone trailing "cw"/"ccw" token and
// reports how many clockwise 90 degree turns it implies.
func extractRotation(s string) (int, string) {
	tokens := splitTopLevel(s, ",")
	turns := 0
	kept := tokens[:0:0]
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		switch t {
		case "cw":
			turns = (turns + 1) % 4
		case "ccw":
			turns = (turns + 3) % 4
		default:
			kept = append(kept, tok)
		}
	}
	return turns, strings.Join(kept, ",")
}

// extractSize removes a standalone "WxH" token and reports the size.
func extractSize(s string) (w, h int, rest string) {
	tokens := splitTopLevel(s, ",")
	kept := tokens[:0:0]
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		if ww, hh, ok := parseSizeToken(t); ok {
			w, h = ww, hh
			continue
		}
		kept = append(kept, tok)
	}
	return w, h, strings.Join(kept, ",")
}

func parseSizeToken(t string) (int, int, bool) {
	parts := strings.SplitN(t, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// splitTopLevel splits s on any rune in seps, ignoring separators nested
// inside parentheses.
func splitTopLevel(s string, seps string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && strings.ContainsRune(seps, r) {
				out = append(out, s[start:i])
				start = i + len(string(r))
			}
		}
	}
	out = append(out, s[start:])
	var trimmed []string
	for _, p := range out {
		p = strings.TrimSpace(p)
		if p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return trimmed
}

// parseStripe parses one comma-separated, `|`/`/`-delimited stripe into
// a flat color sequence, expanding `xN` repeats and `A..B`/`A.N.B`
// gradients.
func parseStripe(s string, dst *profile.Profile) ([]rgba, error) {
	tokens := splitTopLevel(s, ",")
	var out []rgba
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if ww, hh, ok := parseSizeToken(tok); ok {
			_, _ = ww, hh
			continue
		}

		if rep, base, ok := splitRepeat(tok); ok {
			c, err := parseColorOrGradient(base, dst)
			if err != nil {
				return nil, err
			}
			for i := 0; i < rep; i++ {
				out = append(out, c...)
			}
			continue
		}

		colors, err := parseColorOrGradient(tok, dst)
		if err != nil {
			return nil, err
		}
		out = append(out, colors...)
	}
	return out, nil
}

// splitRepeat recognizes a trailing "xN" repeat count on a token (spec.md
// §6.2 "xN — repeat the last color N times"), returning the token with
// the suffix removed.
func splitRepeat(tok string) (count int, base string, ok bool) {
	idx := strings.LastIndexByte(tok, 'x')
	if idx <= 0 || idx == len(tok)-1 {
		return 0, "", false
	}
	n, err := strconv.Atoi(tok[idx+1:])
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, tok[:idx], true
}

// parseColorOrGradient parses a single color literal, or a gradient
// ("A..B" or "A.N.B") between two color literals.
func parseColorOrGradient(tok string, dst *profile.Profile) ([]rgba, error) {
	if strings.Contains(tok, "..") {
		parts := strings.SplitN(tok, "..", 2)
		a, err := parseColor(strings.TrimSpace(parts[0]), dst)
		if err != nil {
			return nil, err
		}
		b, err := parseColor(strings.TrimSpace(parts[1]), dst)
		if err != nil {
			return nil, err
		}
		n := gradientSteps(a, b)
		return gradient(a, b, n), nil
	}

	if n, a, b, ok := splitExplicitGradient(tok); ok {
		ca, err := parseColor(a, dst)
		if err != nil {
			return nil, err
		}
		cb, err := parseColor(b, dst)
		if err != nil {
			return nil, err
		}
		return gradient(ca, cb, n), nil
	}

	c, err := parseColor(tok, dst)
	if err != nil {
		return nil, err
	}
	return []rgba{c}, nil
}

// splitExplicitGradient recognizes "A.N.B" where N is an integer sample
// count, distinguishing it from a plain "..".
func splitExplicitGradient(tok string) (n int, a, b string, ok bool) {
	parts := strings.Split(tok, ".")
	// Look for a lone integer field among the dot-separated parts; the
	// color literals on either side may themselves contain no dots
	// (hex/decimal/function forms never do at the top level once
	// parenthesized content is excluded by splitTopLevel's caller).
	for i := 1; i < len(parts)-1; i++ {
		if v, err := strconv.Atoi(parts[i]); err == nil && v > 0 {
			left := strings.Join(parts[:i], ".")
			right := strings.Join(parts[i+1:], ".")
			return v, left, right, true
		}
	}
	return 0, "", "", false
}

func gradientSteps(a, b rgba) int {
	diff := absF(a.r-b.r) + absF(a.g-b.g) + absF(a.b-b.b) + absF(a.a-b.a)
	n := int(diff*255) + 1
	if n < 2 {
		n = 2
	}
	return n
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func gradient(a, b rgba, n int) []rgba {
	out := make([]rgba, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		if n == 1 {
			t = 0
		}
		out[i] = rgba{
			r: a.r + (b.r-a.r)*t,
			g: a.g + (b.g-a.g)*t,
			b: a.b + (b.b-a.b)*t,
			a: a.a + (b.a-a.a)*t,
		}
	}
	return out
}

// parseColor parses a single color literal in any of the forms spec.md
// §6.2 lists: hex, decimal tuple, rgb()/rgba()/rgb16()/rgba16(),
// f()/float(), xyz()/xyy().
func parseColor(tok string, dst *profile.Profile) (rgba, error) {
	switch {
	case strings.HasPrefix(tok, "#"):
		return parseHex(tok)
	case strings.HasPrefix(tok, "("):
		return parseDecimalTuple(tok, 255)
	case strings.HasPrefix(tok, "rgba16("):
		return parseFuncTuple(tok, "rgba16(", 65535)
	case strings.HasPrefix(tok, "rgb16("):
		return parseFuncTuple(tok, "rgb16(", 65535)
	case strings.HasPrefix(tok, "rgba("):
		return parseFuncTuple(tok, "rgba(", 255)
	case strings.HasPrefix(tok, "rgb("):
		return parseFuncTuple(tok, "rgb(", 255)
	case strings.HasPrefix(tok, "float("):
		return parseFuncTuple(tok, "float(", 1)
	case strings.HasPrefix(tok, "f("):
		return parseFuncTuple(tok, "f(", 1)
	case strings.HasPrefix(tok, "xyz("):
		return parseXYZ(tok, dst)
	case strings.HasPrefix(tok, "xyy("):
		return parseXYY(tok, dst)
	default:
		return rgba{}, colorerr.New(colorerr.Validation, "image.parseColor", "unrecognized color literal: "+tok)
	}
}

func parseHex(tok string) (rgba, error) {
	h := strings.TrimPrefix(tok, "#")
	if len(h) != 6 && len(h) != 8 {
		return rgba{}, colorerr.New(colorerr.Validation, "image.parseHex", "hex color must be 6 or 8 digits")
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return rgba{}, colorerr.Wrap(colorerr.Validation, "image.parseHex", err)
	}
	a := 1.0
	if len(h) == 8 {
		a = float64(v&0xff) / 255
		v >>= 8
	}
	r := float64((v>>16)&0xff) / 255
	g := float64((v>>8)&0xff) / 255
	b := float64(v&0xff) / 255
	return rgba{r, g, b, a}, nil
}

func parseDecimalTuple(tok string, maxV float64) (rgba, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "("), ")")
	return parseComponents(inner, maxV)
}

func parseFuncTuple(tok, prefix string, maxV float64) (rgba, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, prefix), ")")
	return parseComponents(inner, maxV)
}

func parseComponents(inner string, maxV float64) (rgba, error) {
	fields := strings.Split(inner, ",")
	if len(fields) != 3 && len(fields) != 4 {
		return rgba{}, colorerr.New(colorerr.Validation, "image.parseComponents", "expected 3 or 4 components")
	}
	vals := make([]float64, 4)
	vals[3] = maxV
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return rgba{}, colorerr.Wrap(colorerr.Validation, "image.parseComponents", err)
		}
		vals[i] = v
	}
	return rgba{vals[0] / maxV, vals[1] / maxV, vals[2] / maxV, vals[3] / maxV}, nil
}

// parseXYZ parses "xyz(x,y,z)" and converts to dst's linear RGB via its
// XYZ->RGB matrix (spec.md §6.2: "converted to destination RGB at parse
// time using an XYZ->dst transform").
func parseXYZ(tok string, dst *profile.Profile) (rgba, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "xyz("), ")")
	fields := strings.Split(inner, ",")
	if len(fields) != 3 {
		return rgba{}, colorerr.New(colorerr.Validation, "image.parseXYZ", "expected 3 components")
	}
	var xyz mat.Vec3
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return rgba{}, colorerr.Wrap(colorerr.Validation, "image.parseXYZ", err)
		}
		xyz[i] = v
	}
	return xyzToRGBA(xyz, dst), nil
}

// parseXYY parses "xyy(x,y,Y)" (CIE xyY), converts to XYZ, then to dst's
// linear RGB the same way parseXYZ does.
func parseXYY(tok string, dst *profile.Profile) (rgba, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "xyy("), ")")
	fields := strings.Split(inner, ",")
	if len(fields) != 3 {
		return rgba{}, colorerr.New(colorerr.Validation, "image.parseXYY", "expected 3 components")
	}
	var v [3]float64
	for i, f := range fields {
		p, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return rgba{}, colorerr.Wrap(colorerr.Validation, "image.parseXYY", err)
		}
		v[i] = p
	}
	x, y, yy := v[0], v[1], v[2]
	if y == 0 {
		return rgba{0, 0, 0, 1}, nil
	}
	xyz := mat.Vec3{x * yy / y, yy, (1 - x - y) * yy / y}
	return xyzToRGBA(xyz, dst), nil
}

func xyzToRGBA(xyz mat.Vec3, dst *profile.Profile) rgba {
	if dst == nil {
		return rgba{xyz[0], xyz[1], xyz[2], 1}
	}
	rgb := dst.XYZToRGB.MulVec(xyz)
	return rgba{clamp01(rgb[0]), clamp01(rgb[1]), clamp01(rgb[2]), 1}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
