package transform

import "context"

// Format identifies an image encoding the pipeline can produce.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEWEBP = "image/webp"
)

// Codec decodes source bytes, applies a plan's resize and encode settings, and
// materializes the result in a single output buffer.
type Codec interface {
	Transform(ctx context.Context, input []byte, plan Plan) ([]byte, error)
}

// AnimationDetector reports whether raw image bytes hold more than one frame.
type AnimationDetector interface {
	Animated(data []byte) (bool, error)
}
