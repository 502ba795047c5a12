package profile

import "colorist.dev/colorist/colorerr"

// Errors surfaced by profile construction and parsing, tagged per
// colorerr's taxonomy (spec.md §7).
var (
	errZeroLuminanceDivide = colorerr.New(colorerr.Arithmetic, "deriveRGBToXYZ", "white point Y is zero")
	errInvalidPrimaries    = colorerr.New(colorerr.Validation, "Create", "primaries contain a zero chromaticity component")
	errInvalidGamma        = colorerr.New(colorerr.Validation, "Create", "gamma must be positive")
	errNoMatrixTRC         = colorerr.New(colorerr.Unsupported, "Parse", "profile is not a matrix/TRC RGB or gray profile")
	errNoCurve             = colorerr.New(colorerr.Unsupported, "Parse", "profile carries a curve type this package cannot evaluate exactly")
)
