// Package codec defines the uniform plugin contract every image
// container format satisfies (spec.md §4.8), plus a format registry with
// extension-first-then-sniff dispatch. Concrete codecs live in sibling
// files; none of colorist's color-management core depends on a specific
// wire format, only on this interface.
package codec

import (
	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/image"
	"colorist.dev/colorist/logging"
)

// DepthPolicy describes which sample depths a format can carry, for the
// planner's formatBestDepth clamp (spec.md §4.7 step 12).
type DepthPolicy struct {
	// Allowed lists every depth (in bits/channel) the format accepts,
	// ascending; Best records the format's preferred depth. The planner
	// does not read Best: it clamps the requested or source depth with
	// Clamp.
	Allowed []int
	Best    int
}

// Max returns the policy's highest allowed depth.
func (d DepthPolicy) Max() int {
	if len(d.Allowed) == 0 {
		return 8
	}
	return d.Allowed[len(d.Allowed)-1]
}

// Clamp returns the largest allowed depth <= requested, or the smallest
// allowed depth if requested is below all of them.
func (d DepthPolicy) Clamp(requested int) int {
	if len(d.Allowed) == 0 {
		return requested
	}
	best := d.Allowed[0]
	for _, a := range d.Allowed {
		if a <= requested {
			best = a
		}
	}
	return best
}

// WriteParams carries the planner's per-write tunables a plugin may
// consult (quality, bit rate, chroma subsampling, tiling, quantizer
// bounds — spec.md §6.1). Every field is optional; a zero value means
// "let the plugin pick its default".
type WriteParams struct {
	Quality      int
	Rate         int
	YUVFormat    string
	QuantizerMin int
	QuantizerMax int
	TilingRows   int
	TilingCols   int
	Depth        int
}

// Env is the minimal slice of the process-wide context (colorctx.Context)
// a plugin needs: somewhere to log, and the configured default luminance
// for formats whose metadata omits it. Defined here (rather than taking
// colorctx.Context directly) so codec has no import-time dependency on
// the package that holds the format registry.
type Env struct {
	Logger           logging.Logger
	DefaultLuminance int
}

// Plugin is the contract every format implements (spec.md §4.8).
type Plugin interface {
	Name() string
	Description() string
	MIMEType() string
	Extensions() []string
	DepthPolicy() DepthPolicy
	// Read decodes rawInput into an Image. All byte I/O happens before
	// the plugin sees input.
	Read(env Env, rawInput []byte) (*image.Image, error)
	// Write encodes img per params, appending to a growable buffer.
	Write(env Env, img *image.Image, params WriteParams) ([]byte, error)
	// Detect examines up to 1 KiB of header bytes and reports whether
	// they look like this format. A plugin may decline to implement
	// detection by always returning false.
	Detect(header []byte) bool
}

const sniffWindow = 1024

// Registry maps format names and extensions to Plugins (spec.md §4.8
// "format registry").
type Registry struct {
	byName map[string]Plugin
	order  []Plugin
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Plugin)}
}

// Register adds p, keyed by its lower-case Name(). Re-registering the
// same name replaces the previous plugin.
func (r *Registry) Register(p Plugin) {
	if _, exists := r.byName[p.Name()]; !exists {
		r.order = append(r.order, p)
	} else {
		for i, existing := range r.order {
			if existing.Name() == p.Name() {
				r.order[i] = p
			}
		}
	}
	r.byName[p.Name()] = p
}

// ByName looks up a plugin by its exact registered name.
func (r *Registry) ByName(name string) (Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// ByExtension looks up a plugin whose Extensions() contains ext
// (case-insensitive, with or without a leading dot).
func (r *Registry) ByExtension(ext string) (Plugin, bool) {
	ext = normalizeExt(ext)
	for _, p := range r.order {
		for _, e := range p.Extensions() {
			if normalizeExt(e) == ext {
				return p, true
			}
		}
	}
	return nil, false
}

// Sniff probes header (truncated to 1 KiB) against every registered
// plugin's Detect, in registration order, returning the first match
// (spec.md §4.8 detect).
func (r *Registry) Sniff(header []byte) (Plugin, bool) {
	if len(header) > sniffWindow {
		header = header[:sniffWindow]
	}
	for _, p := range r.order {
		if p.Detect(header) {
			return p, true
		}
	}
	return nil, false
}

// Resolve implements the planner's extension-first-then-sniff-then-give-up
// dispatch rule (spec.md §4.7 step 1, §4.8).
func (r *Registry) Resolve(explicitName, filename string, header []byte) (Plugin, error) {
	if explicitName != "" {
		p, ok := r.ByName(explicitName)
		if !ok {
			return nil, colorerr.New(colorerr.Input, "codec.Resolve", "unregistered format: "+explicitName)
		}
		return p, nil
	}
	if ext := extOf(filename); ext != "" {
		if p, ok := r.ByExtension(ext); ok {
			return p, nil
		}
	}
	if p, ok := r.Sniff(header); ok {
		return p, nil
	}
	return nil, colorerr.New(colorerr.Input, "codec.Resolve", "could not determine format for "+filename)
}

func normalizeExt(e string) string {
	e = trimLeadingDot(e)
	return lower(e)
}

func trimLeadingDot(s string) string {
	if len(s) > 0 && s[0] == '.' {
		return s[1:]
	}
	return s
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func extOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[i+1:]
		}
		if filename[i] == '/' {
			break
		}
	}
	return ""
}
