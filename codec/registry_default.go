package codec

// NewDefaultRegistry builds a Registry with every plugin this package
// ships registered: PNG, JPEG, BMP, TIFF, WebP (decode-only), and the
// JP2/AVIF contract-only stubs.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PNGPlugin{})
	r.Register(JPEGPlugin{})
	r.Register(BMPPlugin{})
	r.Register(TIFFPlugin{})
	r.Register(WebPPlugin{})
	r.Register(JP2Plugin)
	r.Register(AVIFPlugin)
	return r
}
