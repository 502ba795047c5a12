package profile

import (
	"math"

	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/icc"
	"colorist.dev/colorist/mat"
	"colorist.dev/colorist/transfer"
)

// Parse decodes an ICC byte blob into a Profile (spec.md §4.3 parse),
// preserving the original tag table in full so Write can round-trip tags
// this package never interprets. descriptionOverride, when non-empty,
// replaces whatever description the profile tag table carries.
func Parse(iccBytes []byte, descriptionOverride string) (*Profile, error) {
	ip, err := icc.Decode(iccBytes)
	if err != nil {
		return nil, colorerr.Wrap(colorerr.Input, "Parse", err)
	}

	p := &Profile{
		raw:     append([]byte(nil), iccBytes...),
		tagData: make(map[icc.TagType][]byte, len(ip.TagData)),
	}
	for k, v := range ip.TagData {
		p.tagData[k] = v
	}
	p.isGray = ip.IsGray()

	if err := p.queryFromTags(ip); err != nil {
		return nil, err
	}

	if descriptionOverride != "" {
		p.Description = descriptionOverride
	}
	return p, nil
}

// queryFromTags fills in Primaries, Curve, MaxLuminance, RGBToXYZ,
// XYZToRGB, and Description by interpreting ip's tag table (spec.md §4.3
// query).
func (p *Profile) queryFromTags(ip *icc.Profile) error {
	p.Description = readDescription(ip)

	if p.isGray {
		return p.queryGray(ip)
	}

	rData, hasR := ip.TagData[icc.RedMatrixColumn]
	gData, hasG := ip.TagData[icc.GreenMatrixColumn]
	bData, hasB := ip.TagData[icc.BlueMatrixColumn]
	if !hasR || !hasG || !hasB {
		return p.queryLUT(ip)
	}
	rXYZ, err1 := decodeXYZTag(rData)
	gXYZ, err2 := decodeXYZTag(gData)
	bXYZ, err3 := decodeXYZTag(bData)
	if err1 != nil || err2 != nil || err3 != nil {
		return colorerr.New(colorerr.Input, "Parse", "malformed matrix column tag")
	}

	wXYZ := d50WhitePointXYZ
	if wData, ok := ip.TagData[icc.MediaWhitePoint]; ok {
		if w, err := decodeXYZTag(wData); err == nil {
			wXYZ = w
		}
	}

	// If a chad (chromatic adaptation) tag is present and the media white
	// point is D50, the colorants were forward-adapted from the profile's
	// authored white to D50; back-adapt them through chad^-1 before
	// recovering chromaticities, so Primaries reflects the authored white
	// rather than D50 (spec.md §4.3 query).
	if chadData, ok := ip.TagData[icc.ChromaticAdaptation]; ok && isApproxD50(wXYZ) {
		if chad, err := decodeChad(chadData); err == nil {
			if inv, err := chad.Invert(); err == nil {
				rXYZ = inv.MulVec(rXYZ)
				gXYZ = inv.MulVec(gXYZ)
				bXYZ = inv.MulVec(bXYZ)
				wXYZ = inv.MulVec(wXYZ)
			}
		}
	}

	m := mat.ColumnsMat3(rXYZ, gXYZ, bXYZ)
	inv, err := m.Invert()
	if err != nil {
		return colorerr.Wrap(colorerr.Arithmetic, "Parse", err)
	}

	p.RGBToXYZ = m
	p.XYZToRGB = inv
	p.Primaries = Primaries{
		Rx: xyzToX(rXYZ), Ry: xyzToY(rXYZ),
		Gx: xyzToX(gXYZ), Gy: xyzToY(gXYZ),
		Bx: xyzToX(bXYZ), By: xyzToY(bXYZ),
		Wx: xyzToX(wXYZ), Wy: xyzToY(wXYZ),
	}

	trcData, ok := ip.TagData[icc.RedTRC]
	if !ok {
		return errNoMatrixTRC
	}
	p.Curve = decodeCurveTag(trcData)

	p.MaxLuminance = 0 // ICC carries no peak-luminance tag; caller supplies a default.
	return nil
}

// queryLUT handles profiles with no matrix/TRC colorant tags — printers
// and other device profiles that instead carry an AToB/mAB perceptual
// LUT (spec.md §4.3 query covers parsing any conforming ICC profile;
// only synthesis (spec.md §4.7 step 15) is restricted to matrix/TRC).
// It samples the profile's own device-to-PCS transform at the RGB
// primary and white device coordinates to recover reporting chromaticity
// and a reporting gamma, the same quantities queryFromTags recovers
// directly from matrix/TRC tags.
func (p *Profile) queryLUT(ip *icc.Profile) error {
	tr, err := icc.NewTransform(ip, icc.DeviceToPCS, icc.Perceptual)
	if err != nil {
		return errNoMatrixTRC
	}

	rX, rY, rZ := tr.ToXYZ([]float64{1, 0, 0})
	gX, gY, gZ := tr.ToXYZ([]float64{0, 1, 0})
	bX, bY, bZ := tr.ToXYZ([]float64{0, 0, 1})
	wX, wY, wZ := tr.ToXYZ([]float64{1, 1, 1})

	rXYZ := mat.Vec3{rX, rY, rZ}
	gXYZ := mat.Vec3{gX, gY, gZ}
	bXYZ := mat.Vec3{bX, bY, bZ}
	wXYZ := mat.Vec3{wX, wY, wZ}

	m := mat.ColumnsMat3(rXYZ, gXYZ, bXYZ)
	inv, err := m.Invert()
	if err != nil {
		return colorerr.Wrap(colorerr.Arithmetic, "Parse", err)
	}

	p.RGBToXYZ = m
	p.XYZToRGB = inv
	p.Primaries = Primaries{
		Rx: xyzToX(rXYZ), Ry: xyzToY(rXYZ),
		Gx: xyzToX(gXYZ), Gy: xyzToY(gXYZ),
		Bx: xyzToX(bXYZ), By: xyzToY(bXYZ),
		Wx: xyzToX(wXYZ), Wy: xyzToY(wXYZ),
	}

	// Estimate a reporting gamma from the LUT's mid-grey response, the
	// same midpoint-slope technique icc.Curve.sampledTransferCurve uses
	// for a sampled matrix/TRC table.
	_, midY, _ := tr.ToXYZ([]float64{0.5, 0.5, 0.5})
	gamma := 2.2
	if wY > 0 {
		if norm := midY / wY; norm > 0 && norm < 1 {
			gamma = logBase(norm, 0.5)
		}
	}
	p.Curve = transfer.Curve{Kind: transfer.Complex, Gamma: gamma}
	p.MaxLuminance = 0
	return nil
}

func (p *Profile) queryGray(ip *icc.Profile) error {
	trcData, ok := ip.TagData[icc.GrayTRC]
	if !ok {
		return errNoMatrixTRC
	}
	p.Curve = decodeCurveTag(trcData)
	p.Primaries = PrimariesBT709 // gray profiles carry no gamut; BT.709 is the reporting default.
	p.RGBToXYZ = Identity3ForGray()
	p.XYZToRGB = Identity3ForGray()
	return nil
}

// Identity3ForGray returns the identity matrix used as the nominal
// RGB<->XYZ pair for grayscale profiles, which have no gamut to derive.
func Identity3ForGray() mat.Mat3 { return mat.Identity3() }

func readDescription(ip *icc.Profile) string {
	if data, ok := ip.TagData[icc.ProfileDescription]; ok {
		if s := decodeDescriptionTag(data); s != "" {
			return s
		}
	}
	return defaultDescription
}

var d50WhitePointXYZ = mat.Vec3{0.9642, 1.0, 0.8249}

func xyzToX(v mat.Vec3) float64 {
	sum := v[0] + v[1] + v[2]
	if sum == 0 {
		return 0
	}
	return v[0] / sum
}

func xyzToY(v mat.Vec3) float64 {
	sum := v[0] + v[1] + v[2]
	if sum == 0 {
		return 0
	}
	return v[1] / sum
}

func isApproxD50(w mat.Vec3) bool {
	const eps = 0.02
	return absF(w[0]-0.9642) < eps && absF(w[1]-1.0) < eps && absF(w[2]-0.8249) < eps
}

func decodeXYZTag(data []byte) (mat.Vec3, error) {
	if len(data) < 20 {
		return mat.Vec3{}, errNoMatrixTRC
	}
	x := getS15Fixed16(data, 8)
	y := getS15Fixed16(data, 12)
	z := getS15Fixed16(data, 16)
	return mat.Vec3{x, y, z}, nil
}

func decodeChad(data []byte) (mat.Mat3, error) {
	// sf32 array type: "sf32" + 4 reserved bytes + 9 s15Fixed16 values.
	if len(data) < 8+9*4 {
		return mat.Mat3{}, errNoMatrixTRC
	}
	var m mat.Mat3
	for i := 0; i < 9; i++ {
		m[i] = getS15Fixed16(data, 8+i*4)
	}
	return m, nil
}

func getS15Fixed16(data []byte, offset int) float64 {
	raw := int32(getUint32BE(data, offset))
	return float64(raw) / 65536.0
}

func getUint32BE(data []byte, offset int) uint32 {
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 |
		uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

// decodeCurveTag decodes an ICC curve tag and reports it in colorist's
// transfer.Curve vocabulary via icc.Curve.ToTransferCurve, rather than
// re-deriving the gamma/table/parametric classification here.
func decodeCurveTag(data []byte) transfer.Curve {
	c, err := icc.DecodeCurve(data)
	if err != nil {
		return transfer.Curve{Kind: transfer.Complex, Gamma: 2.2}
	}
	return c.ToTransferCurve()
}

func logBase(x, base float64) float64 {
	if x <= 0 || base <= 0 || base == 1 {
		return 2.2
	}
	return math.Log(x) / math.Log(base)
}

// decodeDescriptionTag reads an ICC "desc" (legacy v2 text), "mluc"
// (multi-localized unicode), or "text" tag, returning its first value.
// The mluc/text forms delegate to icc.DecodeMLUC/icc.DecodeText rather
// than re-parsing the same byte layout profile's own Copyright/
// description handling would otherwise duplicate; only the legacy v2
// "desc" layout has no icc-package decoder to delegate to.
func decodeDescriptionTag(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	switch string(data[0:4]) {
	case "mluc":
		if m, err := icc.DecodeMLUC(data); err == nil {
			return m.First()
		}
		return ""
	case "desc":
		return decodeLegacyDesc(data)
	case "text":
		s, _ := icc.DecodeText(data)
		return s
	default:
		return ""
	}
}

// decodeLegacyDesc reads an ICC v2 "desc" tag: a 32-bit ASCII invariant
// description length followed by that many ASCII bytes (plus further
// Unicode/ScriptCode sections this package does not need).
func decodeLegacyDesc(data []byte) string {
	if len(data) < 12 {
		return ""
	}
	n := getUint32BE(data, 8)
	if uint64(len(data)) < 12+uint64(n) || n == 0 {
		return ""
	}
	b := data[12 : 12+n]
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
