package profile

import (
	"crypto/md5"

	"colorist.dev/colorist/icc"
)

// knownPQProfileMD5 lists the 16-byte MD5 digests of canonical whole-profile
// byte streams known to carry PQ-encoded content under a generic "Complex"
// curve tag that this package's curve decoder cannot otherwise recognize
// (spec.md §4.3 hasPQSignature). Populated as real-world signatures are
// confirmed; an empty/no-match result is not an error, just "unrecognized".
var knownPQProfileMD5 = map[[16]byte]bool{}

// HasPQSignature tests the profile's raw ICC bytes against a small fixed
// set of canonical PQ profile signatures (spec.md §4.3). It only ever
// returns true for profiles parsed from bytes (Parse); synthetic profiles
// built with Create/CreateStock carry no raw form and always report false.
func (p *Profile) HasPQSignature() bool {
	if p.raw == nil {
		return false
	}
	return knownPQProfileMD5[md5.Sum(p.raw)]
}

// curveKindSentinel identifies a curve kind recognized purely by the
// byte length and hash of its TRC tag payload, for profiles that embed a
// sampled curveType table approximating PQ or HLG rather than using an
// ICC parametric type (spec.md §4.3 curveSignature).
type curveKindSentinel struct {
	length int
	sum    [16]byte
}

// knownCurveSignatures maps a sampled TRC tag's (length, MD5) pair to the
// transfer-function kind it represents. Like knownPQProfileMD5, this is a
// small fixed table of canonical payloads; a miss falls through to
// "Unknown", not an error.
var knownCurveSignatures = map[curveKindSentinel]string{}

// CurveSignature inspects the profile's red TRC tag payload (rTRC for RGB
// profiles, kTRC for gray) and, if its length and hash match a known PQ or
// HLG sampled-curve signature, returns "PQ" or "HLG". Otherwise returns
// "Unknown" — callers fall back to the decoded Curve field in that case.
func (p *Profile) CurveSignature() string {
	if p.tagData == nil {
		return "Unknown"
	}
	tag := icc.RedTRC
	if p.isGray {
		tag = icc.GrayTRC
	}
	data, ok := p.tagData[tag]
	if !ok {
		return "Unknown"
	}
	key := curveKindSentinel{length: len(data), sum: md5.Sum(data)}
	if kind, ok := knownCurveSignatures[key]; ok {
		return kind
	}
	return "Unknown"
}
