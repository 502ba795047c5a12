// Package profile implements the color profile model (Profile, §3/§4.3):
// chromaticity primaries, a transfer curve, a nominal peak luminance, and
// an optional opaque ICC byte blob preserved for lossless pass-through.
//
// A Profile's derived RGB<->XYZ matrices are computed once, at
// construction or parse time, rather than on every transform.Build — the
// transform engine only ever reads them.
package profile

import (
	"fmt"
	"strings"
	"time"

	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/icc"
	"colorist.dev/colorist/mat"
	"colorist.dev/colorist/transfer"
)

// Profile is a color space: a gamut (Primaries) plus a transfer curve, a
// nominal peak luminance, a human label, and (when decoded from a file)
// the original ICC bytes, kept for lossless round-trip and signature
// matching (spec.md §4.3 hasPQSignature/curveSignature).
type Profile struct {
	Primaries    Primaries
	Curve        transfer.Curve
	MaxLuminance int // nits; 0 = unspecified
	Description  string

	// RGBToXYZ and XYZToRGB are derived once from Primaries (spec.md §4.2).
	RGBToXYZ mat.Mat3
	XYZToRGB mat.Mat3

	// raw holds the original ICC bytes when this Profile was produced by
	// Parse, so Write can preserve tags this package does not understand.
	raw []byte
	// tagData holds a decoded copy of raw's tag table, mutated by SetMLU,
	// RemoveTag, and SetGamma and re-encoded by Write.
	tagData map[icc.TagType][]byte
	isGray  bool
}

// defaultDescription is used by Parse when a profile carries no readable
// description tag (spec.md §4.3 parse).
const defaultDescription = "Unknown"

// Create builds a Profile from validated primaries, a curve, a nominal
// luminance, and a description (spec.md §4.3 create). It fails if any
// chromaticity component is zero, the curve's gamma is non-positive, or
// the primaries yield a singular RGB->XYZ matrix.
func Create(p Primaries, curve transfer.Curve, maxLuminance int, description string) (*Profile, error) {
	if !p.nonZero() {
		return nil, errInvalidPrimaries
	}
	if curve.Kind == transfer.Gamma && curve.Gamma <= 0 {
		return nil, errInvalidGamma
	}

	rgbToXYZ, err := deriveRGBToXYZ(p)
	if err != nil {
		return nil, colorerr.Wrap(colorerr.Arithmetic, "Create", err)
	}
	xyzToRGB, err := rgbToXYZ.Invert()
	if err != nil {
		return nil, colorerr.Wrap(colorerr.Arithmetic, "Create", err)
	}

	return &Profile{
		Primaries:    p,
		Curve:        curve,
		MaxLuminance: maxLuminance,
		Description:  description,
		RGBToXYZ:     rgbToXYZ,
		XYZToRGB:     xyzToRGB,
	}, nil
}

// stock profiles, spec.md §4.3 createStock.
var stockProfiles = map[string]struct {
	primaries Primaries
	curve     transfer.Curve
	lum       int
	desc      string
}{
	"srgb":   {PrimariesBT709, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.4}, 300, "sRGB"},
	"bt709":  {PrimariesBT709, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.4}, 100, "BT.709"},
	"bt2020": {PrimariesBT2020, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.4}, 1000, "BT.2020"},
	"p3":     {PrimariesP3, transfer.Curve{Kind: transfer.Gamma, Gamma: 2.2}, 300, "Display P3"},
	"pq":     {PrimariesBT2020, transfer.Curve{Kind: transfer.PQ}, 10000, "BT.2020 PQ"},
	"hlg":    {PrimariesBT2020, transfer.Curve{Kind: transfer.HLG}, 1000, "BT.2020 HLG"},
}

// CreateStock builds one of the well-known named profiles (spec.md §4.3
// createStock). Recognized ids: "sRGB", "BT.709", "BT.2020", "P3", "PQ",
// "HLG" (case-insensitive, punctuation-insensitive).
func CreateStock(id string) (*Profile, error) {
	key := normalizeStockID(id)
	s, ok := stockProfiles[key]
	if !ok {
		return nil, colorerr.New(colorerr.Validation, "CreateStock", fmt.Sprintf("unknown stock profile %q", id))
	}
	return Create(s.primaries, s.curve, s.lum, s.desc)
}

func normalizeStockID(id string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(id) {
		if r == '.' || r == '-' || r == '_' || r == ' ' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Clone returns an independent copy; a Profile being attached to a new
// Image always goes through Clone (spec.md §3 "cloning is always used when
// an Image takes a profile from elsewhere").
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	q := *p
	if p.raw != nil {
		q.raw = append([]byte(nil), p.raw...)
	}
	if p.tagData != nil {
		q.tagData = make(map[icc.TagType][]byte, len(p.tagData))
		for k, v := range p.tagData {
			q.tagData[k] = append([]byte(nil), v...)
		}
	}
	return &q
}

// Matches reports approximate equality on primaries, curve kind and gamma,
// and maxLuminance (spec.md §4.3 matches) — the test transform.Build uses
// to decide reformat vs. full transform kernels.
func Matches(a, b *Profile) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.Primaries.nearEqual(b.Primaries, 1e-4) {
		return false
	}
	if a.Curve.Kind != b.Curve.Kind {
		return false
	}
	if a.Curve.Kind == transfer.Gamma && absF(a.Curve.Gamma-b.Curve.Gamma) > 1e-4 {
		return false
	}
	return a.MaxLuminance == b.MaxLuminance
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SetGamma rewrites the profile's curve to a gamma curve with the given
// exponent, re-deriving nothing (gamma does not affect the RGB<->XYZ
// matrix, only per-channel linearization).
func (p *Profile) SetGamma(gamma float64) error {
	if gamma <= 0 {
		return errInvalidGamma
	}
	p.Curve = transfer.Curve{Kind: transfer.Gamma, Gamma: gamma}
	if p.tagData != nil {
		curve := (&icc.Curve{Gamma: gamma}).Encode()
		p.tagData[icc.RedTRC] = curve
		p.tagData[icc.GreenTRC] = curve
		p.tagData[icc.BlueTRC] = curve
	}
	return nil
}

// SetLuminance overwrites the nominal peak luminance in nits.
func (p *Profile) SetLuminance(nits int) {
	p.MaxLuminance = nits
}

// SetMLU sets a multi-localized-unicode tag (e.g. description, copyright)
// to a single language/country/value triple (spec.md §4.3 setMLU). ascii
// values outside BMP are replaced with '?' by the underlying ICC encoder.
func (p *Profile) SetMLU(tag icc.TagType, lang, country, ascii string) {
	p.materializeTagData()
	p.tagData[tag] = encodeMLU(lang, country, ascii)
	if tag == icc.ProfileDescription {
		p.Description = ascii
	}
}

// RemoveTag deletes a tag from the profile's tag table, taking effect the
// next time Write is called.
func (p *Profile) RemoveTag(tag icc.TagType) {
	p.materializeTagData()
	delete(p.tagData, tag)
}

// materializeTagData ensures p.tagData holds a full tag table before a
// single-tag edit (SetMLU, RemoveTag): a synthetic profile built with
// Create/CreateStock has no tagData yet, so edits would otherwise clobber
// the matrix/TRC tags Write derives on the fly.
func (p *Profile) materializeTagData() {
	if p.tagData != nil {
		return
	}
	p.tagData = p.toICCProfile().TagData
}

// Write packs the profile to ICC bytes, preferring the preserved raw tag
// table (with any SetMLU/RemoveTag/SetGamma edits applied)
// and falling back to a from-scratch matrix/TRC encoding for profiles
// built purely from primaries+curve (spec.md §4.3 write/pack).
func (p *Profile) Write() ([]byte, error) {
	ip := p.toICCProfile()
	data, err := ip.Encode()
	if err != nil {
		return nil, colorerr.Wrap(colorerr.External, "Write", err)
	}
	return data, nil
}

// Pack is an alias for Write, matching spec.md's "write, pack" pairing:
// write targets a caller-supplied buffer in the source model, pack
// targets a freshly allocated one; both collapse to the same byte slice
// in an idiomatic Go rendition.
func (p *Profile) Pack() ([]byte, error) { return p.Write() }

// Fingerprint returns a hex-encoded MD5 profile identifier for the
// encoded tag table, matching what a conforming ICC v4 reader would
// compute from Write's output. Used by planner's identify/report actions
// to print a stable profile fingerprint distinct from
// HasPQSignature/CurveSignature, which only fingerprint the curve.
func (p *Profile) Fingerprint() (string, error) {
	id, err := p.toICCProfile().ProfileID()
	if err != nil {
		return "", colorerr.Wrap(colorerr.External, "Fingerprint", err)
	}
	return fmt.Sprintf("%x", id), nil
}

func (p *Profile) toICCProfile() *icc.Profile {
	if p.tagData != nil {
		ip := &icc.Profile{
			Version:         icc.Version4_3_0,
			Class:           icc.DisplayDeviceProfile,
			ColorSpace:      icc.RGBSpace,
			PCS:             icc.PCSXYZSpace,
			CreationDate:    time.Now().UTC(),
			RenderingIntent: icc.RelativeColorimetric,
			TagData:         make(map[icc.TagType][]byte, len(p.tagData)),
		}
		if p.isGray {
			ip.ColorSpace = icc.GraySpace
		}
		for k, v := range p.tagData {
			ip.TagData[k] = v
		}
		return ip
	}

	rXYZ, gXYZ, bXYZ := colorantColumns(p.RGBToXYZ)
	wXYZ := xyyToXYZ(p.Primaries.Wx, p.Primaries.Wy)
	gamma := p.Curve.Gamma
	if gamma <= 0 {
		gamma = 2.2
	}
	ip := icc.NewMatrixTRCProfile(rXYZ, gXYZ, bXYZ, wXYZ, gamma, p.Description)
	return ip
}

// colorantColumns extracts the R, G, B columns of a row-major RGB->XYZ
// matrix as the [3]float64 triples the ICC encoder expects.
func colorantColumns(m mat.Mat3) (r, g, b [3]float64) {
	r = [3]float64{m[0], m[3], m[6]}
	g = [3]float64{m[1], m[4], m[7]}
	b = [3]float64{m[2], m[5], m[8]}
	return
}

// xyyToXYZ converts a chromaticity pair with implicit Y=1 to XYZ.
func xyyToXYZ(x, y float64) [3]float64 {
	if y == 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{x / y, 1, (1 - x - y) / y}
}

func encodeMLU(lang, country, value string) []byte {
	runes := []rune(value)
	buf := make([]byte, 28+2*len(runes))
	copy(buf[0:4], "mluc")
	putUint32(buf, 8, 1)
	putUint32(buf, 12, 12)
	l := []byte(lang)
	c := []byte(country)
	if len(l) >= 2 {
		buf[16], buf[17] = l[0], l[1]
	}
	if len(c) >= 2 {
		buf[18], buf[19] = c[0], c[1]
	}
	putUint32(buf, 20, uint32(2*len(runes)))
	putUint32(buf, 24, 28)
	for i, r := range runes {
		if r > 0xFFFF {
			r = '?'
		}
		buf[28+2*i] = byte(r >> 8)
		buf[28+2*i+1] = byte(r)
	}
	return buf
}

func putUint32(data []byte, offset int, v uint32) {
	data[offset] = byte(v >> 24)
	data[offset+1] = byte(v >> 16)
	data[offset+2] = byte(v >> 8)
	data[offset+3] = byte(v)
}
