// Package colorctx holds the single per-process context object spec.md
// §5 names as colorist's only global mutable state: a format registry, a
// default luminance, and a logger, constructed at startup and torn down
// at exit. Every other package takes this explicitly rather than
// reaching for a package-level singleton.
package colorctx

import (
	"colorist.dev/colorist/codec"
	"colorist.dev/colorist/logging"
)

// CMM selects which color-management backend a Context's transforms use
// (spec.md §6.1 --cmm {auto|colorist|lcms}).
type CMM int

const (
	CMMAuto CMM = iota
	CMMColorist
	CMMLCMS
)

// defaultDefaultLuminance is used when no --deflum override is given
// (spec.md §3 Profile.maxLuminance "falls back to a configured default,
// typically 80 or 300").
const defaultDefaultLuminance = 300

// Context is the per-process state spec.md §5 describes: "a per-process
// context object that holds format registry, CMM handle, and default
// luminance; it is constructed at startup and torn down at exit."
type Context struct {
	Registry         *codec.Registry
	DefaultLuminance int
	CMM              CMM
	Logger           logging.Logger
}

// Option configures a Context at construction.
type Option func(*Context)

// WithRegistry overrides the default codec registry (useful for tests
// that register a fake plugin).
func WithRegistry(r *codec.Registry) Option {
	return func(c *Context) { c.Registry = r }
}

// WithDefaultLuminance overrides the fallback nits value.
func WithDefaultLuminance(nits int) Option {
	return func(c *Context) { c.DefaultLuminance = nits }
}

// WithCMM selects the color-management backend.
func WithCMM(m CMM) Option {
	return func(c *Context) { c.CMM = m }
}

// WithLogger overrides the logger (default logging.Discard).
func WithLogger(l logging.Logger) Option {
	return func(c *Context) { c.Logger = l }
}

// New constructs a Context with colorist's default codec registry, a
// 300-nit default luminance, the auto CMM, and a discarding logger,
// then applies opts.
func New(opts ...Option) *Context {
	c := &Context{
		Registry:         codec.NewDefaultRegistry(),
		DefaultLuminance: defaultDefaultLuminance,
		CMM:              CMMAuto,
		Logger:           logging.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Env adapts this Context to the minimal view codec.Plugin implementations
// consume.
func (c *Context) Env() codec.Env {
	return codec.Env{Logger: c.Logger, DefaultLuminance: c.DefaultLuminance}
}

// Close tears down the context. Colorist holds no OS resources today (no
// LCMS handle is ever actually opened, per the recorded "LCMS backend"
// Open Question decision); Close exists so callers have a single,
// greppable teardown point to call from a defer regardless.
func (c *Context) Close() {}
