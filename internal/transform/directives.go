package transform

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const DefaultQuality = 82

// FormatOriginal is the directive value that opts out of re-encoding.
const FormatOriginal = "original"

// Directives holds the transform parameters recognized in a request's query
// string. Width and Height are zero when absent or unparseable; Quality is
// always within [0, 100].
type Directives struct {
	Format  string
	Width   int
	Height  int
	Quality int
	Cropped bool
}

// ParseDirectives extracts transform directives from a raw query string.
// Invalid numeric values resolve to absent rather than zero; unparseable
// query fragments are ignored.
func ParseDirectives(rawQuery string) Directives {
	values, _ := url.ParseQuery(rawQuery)

	return Directives{
		Format:  strings.ToLower(strings.TrimSpace(values.Get("format"))),
		Width:   parseDimension(values.Get("width")),
		Height:  parseDimension(values.Get("height")),
		Quality: parseQuality(values.Get("quality")),
		Cropped: values.Has("cropped"),
	}
}

func parseDimension(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// parseQuality rounds half-up before clamping so fractional inputs behave the
// same as in the CDN's documented contract.
func parseQuality(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultQuality
	}

	q := int(math.Floor(v + 0.5))
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}
