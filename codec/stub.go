package codec

import (
	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/image"
)

// stubPlugin registers a format's contract metadata (name, MIME type,
// extensions, depth policy) without a working codec behind it: no
// pure-Go JP2 or AVIF codec exists anywhere in the retrieved corpus, and
// fabricating one would violate the "never fabricate dependencies" rule.
// Both Read and Write report an External-kind error naming the missing
// linked library, so the planner can still resolve the format by name
// and extension and fail with a clear message rather than an unknown-
// format error.
type stubPlugin struct {
	name, desc, mime string
	exts             []string
	missingLibrary   string
}

func (s stubPlugin) Name() string         { return s.name }
func (s stubPlugin) Description() string  { return s.desc }
func (s stubPlugin) MIMEType() string     { return s.mime }
func (s stubPlugin) Extensions() []string { return s.exts }
func (s stubPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8}, Best: 8}
}

func (s stubPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	return nil, colorerr.New(colorerr.External, "codec."+s.name+".Read", "no "+s.missingLibrary+" codec is linked")
}

func (s stubPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	return nil, colorerr.New(colorerr.External, "codec."+s.name+".Write", "no "+s.missingLibrary+" codec is linked")
}

func (s stubPlugin) Detect(header []byte) bool { return false }

// JP2Plugin is a contract-only placeholder for JPEG 2000 (spec.md §1
// lists JP2 wire handling as explicitly out of scope for the core; no
// pure-Go JP2 codec is present in the corpus to wire in).
var JP2Plugin Plugin = stubPlugin{
	name: "jp2", desc: "JPEG 2000 (unimplemented)", mime: "image/jp2",
	exts: []string{"jp2"}, missingLibrary: "JPEG 2000",
}

// AVIFPlugin is a contract-only placeholder for AVIF, for the same
// reason as JP2Plugin.
var AVIFPlugin Plugin = stubPlugin{
	name: "avif", desc: "AVIF (unimplemented)", mime: "image/avif",
	exts: []string{"avif"}, missingLibrary: "AVIF",
}
