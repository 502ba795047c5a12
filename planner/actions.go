package planner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"colorist.dev/colorist/cliparams"
	"colorist.dev/colorist/codec"
	"colorist.dev/colorist/colorctx"
	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/icc"
	"colorist.dev/colorist/image"
	"colorist.dev/colorist/profile"
	"colorist.dev/colorist/taskpool"
	"colorist.dev/colorist/transfer"
	"colorist.dev/colorist/transform"
)

// Identify prints the decoded source profile without writing any output
// file (SPEC_FULL.md §10, grounded on the teacher's examples/list verbose
// ICC dump).
func Identify(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 1 {
		return colorerr.New(colorerr.Validation, "planner.Identify", "identify requires <input>")
	}
	img, err := loadImage(ctx.Registry, ctx.Env(), p.Args[0], p.ICCIn)
	if err != nil {
		return err
	}
	pr := img.Profile
	fmt.Fprintf(os.Stdout, "description: %s\n", pr.Description)
	fmt.Fprintf(os.Stdout, "dimensions: %dx%d depth=%d\n", img.Width, img.Height, img.Depth)
	fmt.Fprintf(os.Stdout, "primaries: R(%.4f,%.4f) G(%.4f,%.4f) B(%.4f,%.4f) W(%.4f,%.4f)\n",
		pr.Primaries.Rx, pr.Primaries.Ry, pr.Primaries.Gx, pr.Primaries.Gy, pr.Primaries.Bx, pr.Primaries.By, pr.Primaries.Wx, pr.Primaries.Wy)
	fmt.Fprintf(os.Stdout, "curve: %s gamma=%.4f\n", pr.Curve.Kind, pr.Curve.Gamma)
	fmt.Fprintf(os.Stdout, "maxLuminance: %d nits\n", pr.MaxLuminance)
	fmt.Fprintf(os.Stdout, "pqSignature: %v curveSignature: %s\n", pr.HasPQSignature(), pr.CurveSignature())
	if fp, err := pr.Fingerprint(); err == nil {
		fmt.Fprintf(os.Stdout, "fingerprint: %s\n", fp)
	}
	return nil
}

// Generate synthesizes a flat-color or DSL-described image and writes it
// with a stock or explicit profile (SPEC_FULL.md §10).
func Generate(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 2 {
		return colorerr.New(colorerr.Validation, "planner.Generate", "generate requires <dsl> <output>")
	}
	dst, err := resolveGenerateProfile(p)
	if err != nil {
		return err
	}
	reader := func(name string) (string, error) {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", colorerr.Wrap(colorerr.Input, "planner.Generate", err)
		}
		return string(data), nil
	}
	img, err := image.ParseString(p.Args[0], dst, reader)
	if err != nil {
		return err
	}
	wp := codec.WriteParams{Quality: p.Quality, Rate: p.Rate, Depth: int(img.Depth)}
	return writeImage(ctx.Registry, ctx.Env(), p.Args[1], p.Format, img, wp)
}

func resolveGenerateProfile(p *cliparams.Params) (*profile.Profile, error) {
	if p.Primaries != "" {
		prim, err := parsePrimaries(p.Primaries)
		if err != nil {
			return nil, err
		}
		curve := transfer.Curve{Kind: transfer.Gamma, Gamma: 2.2}
		if p.Gamma != "" {
			c, err := parseGammaFlag(p.Gamma, 2.2)
			if err != nil {
				return nil, err
			}
			curve = c
		}
		lum := 300
		if p.Luminance != "" {
			l, err := parseLuminanceFlag(p.Luminance, 300)
			if err != nil {
				return nil, err
			}
			lum = l
		}
		return profile.Create(prim, curve, lum, p.Description)
	}
	return nil, nil
}

// Modify round-trips an image through decode->re-encode with ICC tag
// edits only, never touching pixels (SPEC_FULL.md §10).
func Modify(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 2 {
		return colorerr.New(colorerr.Validation, "planner.Modify", "modify requires <input> <output>")
	}
	img, err := loadImage(ctx.Registry, ctx.Env(), p.Args[0], p.ICCIn)
	if err != nil {
		return err
	}
	if p.Description != "" {
		img.Profile.SetMLU(icc.ProfileDescription, "en", "US", p.Description)
	}
	if p.Copyright != "" {
		img.Profile.SetMLU(icc.Copyright, "en", "US", p.Copyright)
	}
	for _, tag := range p.StripTags {
		tag = strings.TrimSpace(tag)
		if t, ok := namedTag(tag); ok {
			if !t.IsSynthesizable() {
				ctx.Logger.Log("planner.Modify", "tag", tag, "note", "not a colorist-synthesized tag, stripping passthrough data")
			}
			img.Profile.RemoveTag(t)
		}
	}
	// --noprofile is honored implicitly: none of the registered codec
	// plugins embed an ICC chunk on write today, so there is nothing
	// further to strip here. img.Profile stays non-nil per the Image
	// invariant (spec.md §4.6) regardless of this flag.
	wp := codec.WriteParams{Quality: p.Quality, Depth: int(img.Depth)}
	return writeImage(ctx.Registry, ctx.Env(), p.Args[1], p.Format, img, wp)
}

// Calc evaluates one DSL color string through an optional transform and
// prints the numeric result (SPEC_FULL.md §10).
func Calc(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 1 {
		return colorerr.New(colorerr.Validation, "planner.Calc", "calc requires <color>")
	}
	var dst *profile.Profile
	if p.Primaries != "" || p.Gamma != "" {
		var err error
		dst, err = resolveGenerateProfile(p)
		if err != nil {
			return err
		}
	}
	img, err := image.ParseString(p.Args[0], dst, nil)
	if err != nil {
		return err
	}
	view := img.PrepareReadPixels(image.LayoutF32)
	fmt.Fprintf(os.Stdout, "r=%.6f g=%.6f b=%.6f a=%.6f\n", view[0], view[1], view[2], view[3])
	return nil
}

// Report is an alias surface over Identify producing the same profile
// dump for batch-reporting callers (SPEC_FULL.md §10).
func Report(ctx *colorctx.Context, p *cliparams.Params) error {
	return Identify(ctx, p)
}

// Hald renders an identity or DSL-described HALD CLUT image useful as
// --hald input to convert (SPEC_FULL.md §10, spec.md §6.2).
func Hald(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 1 {
		return colorerr.New(colorerr.Validation, "planner.Hald", "hald requires <output>")
	}
	side := 8
	if p.BPC > 0 {
		side = p.BPC
	}
	dims := side * side
	width := dims * side
	img, err := image.Create(width, dims, image.Depth8, nil)
	if err != nil {
		return err
	}
	// Identity HALD raster matching pixelfmt.HaldLookup's own buffer
	// convention: dims x (dims*side) RGB raster, side tiles of width dims
	// placed left-to-right, one tile per blue level (pixelfmt.haldAt).
	for b := 0; b < side; b++ {
		for g := 0; g < dims; g++ {
			for r := 0; r < dims; r++ {
				x := b*dims + r
				y := g
				_ = img.SetPixel(x, y, float64(r)/float64(side-1), float64(g)/float64(side-1), float64(b)/float64(side-1), 1)
			}
		}
	}
	wp := codec.WriteParams{Depth: 8}
	return writeImage(ctx.Registry, ctx.Env(), p.Args[0], p.Format, img, wp)
}

// Highlight marks out-of-gamut or clipped pixels after a transform with a
// flat marker color, reusing the transform engine's per-pixel clamp
// decision (SPEC_FULL.md §10).
func Highlight(ctx *colorctx.Context, p *cliparams.Params) error {
	if len(p.Args) < 2 {
		return colorerr.New(colorerr.Validation, "planner.Highlight", "highlight requires <input> <output>")
	}
	img, err := loadImage(ctx.Registry, ctx.Env(), p.Args[0], p.ICCIn)
	if err != nil {
		return err
	}
	dstProfile := img.Profile
	if p.Primaries != "" {
		prim, err := parsePrimaries(p.Primaries)
		if err != nil {
			return err
		}
		dstProfile, err = profile.Create(prim, img.Profile.Curve, img.Profile.MaxLuminance, img.Profile.Description)
		if err != nil {
			return err
		}
	}
	out, err := image.Create(img.Width, img.Height, img.Depth, dstProfile)
	if err != nil {
		return err
	}
	srcFmt, dstFmt := formatsFor(img.Depth), formatsFor(out.Depth)
	tr := transform.Build(img.Profile, srcFmt, int(img.Depth), dstProfile, dstFmt, int(out.Depth), transform.ToneMapOff, transform.ToneMapParams{})
	pool := taskpool.New(jobCount(p.Jobs))
	if err := tr.RunImages(context.Background(), pool, img, out); err != nil {
		return err
	}
	srcView := img.PrepareReadPixels(image.LayoutF32)
	dstView := out.PrepareWritePixels(image.LayoutF32)
	marker := [4]float64{1, 0, 1, 1}
	for i := 0; i < len(dstView); i += 4 {
		if outOfRange(srcView[i]) || outOfRange(srcView[i+1]) || outOfRange(srcView[i+2]) {
			copy(dstView[i:i+4], marker[:])
		}
	}
	out.CommitWrite(dstView)
	wp := codec.WriteParams{Depth: int(out.Depth)}
	return writeImage(ctx.Registry, ctx.Env(), p.Args[1], p.Format, out, wp)
}

func outOfRange(v float64) bool {
	return v < 0 || v > 1
}

func namedTag(name string) (icc.TagType, bool) {
	switch strings.ToLower(name) {
	case "desc", "description":
		return icc.ProfileDescription, true
	case "copyright", "cprt":
		return icc.Copyright, true
	default:
		return 0, false
	}
}
