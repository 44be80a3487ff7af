package transform

import "strings"

// Plan is the immutable outcome of format and geometry resolution. An empty
// Encode keeps the source encoding; an empty ContentType leaves the response
// header untouched.
type Plan struct {
	Encode      Format
	ContentType string
	Quality     int
	Resize      *ResizeSpec
}

// IsNoop reports whether applying the plan would change nothing, in which case
// the original response should flow through byte-for-byte.
func (p Plan) IsNoop() bool {
	return p.Encode == "" && p.Resize == nil
}

// Resolve combines the format and geometry decisions for one request into a
// single plan.
func Resolve(sourceType string, d Directives, accept string) Plan {
	encode, contentType := ResolveFormat(sourceType, d, accept)
	return Plan{
		Encode:      encode,
		ContentType: contentType,
		Quality:     d.Quality,
		Resize:      ResolveGeometry(d),
	}
}

// ResolveFormat decides the target encoding and the content-type header value
// to emit. format=original and explicit recognized formats short-circuit;
// the gif-to-png and accept-webp rules are evaluated in sequence with the
// later rule winning.
func ResolveFormat(sourceType string, d Directives, accept string) (Format, string) {
	switch d.Format {
	case FormatOriginal:
		return "", ""
	case "webp":
		return FormatWEBP, MIMEWEBP
	case "png":
		return FormatPNG, MIMEPNG
	case "jpeg", "jpg":
		return FormatJPEG, MIMEJPEG
	}

	var encode Format
	var contentType string
	if sourceType == MIMEGIF {
		encode, contentType = FormatPNG, MIMEPNG
	}
	if strings.Contains(accept, MIMEWEBP) {
		encode, contentType = FormatWEBP, MIMEWEBP
	}
	return encode, contentType
}
