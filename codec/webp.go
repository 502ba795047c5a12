package codec

import (
	"bytes"

	"golang.org/x/image/webp"

	"colorist.dev/colorist/colorerr"
	"colorist.dev/colorist/image"
)

// WebPPlugin decodes through golang.org/x/image/webp, which is
// decode-only — there is no pure-Go WebP encoder in the retrieved
// corpus, so Write reports an External error naming the missing encoder
// rather than silently no-op'ing (spec.md §4.8's write contract returns
// a success/failure signal the caller must check).
type WebPPlugin struct{}

func (WebPPlugin) Name() string         { return "webp" }
func (WebPPlugin) Description() string  { return "WebP (decode only)" }
func (WebPPlugin) MIMEType() string     { return "image/webp" }
func (WebPPlugin) Extensions() []string { return []string{"webp"} }
func (WebPPlugin) DepthPolicy() DepthPolicy {
	return DepthPolicy{Allowed: []int{8}, Best: 8}
}

func (WebPPlugin) Read(env Env, rawInput []byte) (*image.Image, error) {
	img, err := webp.Decode(bytes.NewReader(rawInput))
	if err != nil {
		return nil, decodeErr("codec.webp.Read", err)
	}
	return fromStdImage(img)
}

func (WebPPlugin) Write(env Env, img *image.Image, params WriteParams) ([]byte, error) {
	return nil, colorerr.New(colorerr.External, "codec.webp.Write", "no pure-Go WebP encoder is linked; webp is decode-only")
}

func (WebPPlugin) Detect(header []byte) bool {
	return len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WEBP"
}
