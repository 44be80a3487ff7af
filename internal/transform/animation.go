package transform

import (
	"bytes"
	"fmt"
	"image/gif"
)

// GIFAnimationDetector counts GIF frames by decoding the full body.
type GIFAnimationDetector struct{}

func (GIFAnimationDetector) Animated(data []byte) (bool, error) {
	img, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("decode gif: %w", err)
	}
	return len(img.Image) > 1, nil
}
