package transform

import (
	"context"
	"encoding/base64"
	"fmt"
)

// MaxEncodedBodyBytes is the hosting platform's ceiling on the base64-encoded
// response body. The limit applies to the encoded string, not the raw buffer.
const MaxEncodedBodyBytes = 1_330_000

// Executor drives the codec to apply a plan in one materialization step.
type Executor struct {
	codec Codec
}

func NewExecutor(codec Codec) *Executor {
	return &Executor{codec: codec}
}

// Apply transforms the input according to the plan and returns the
// base64-encoded result. ok is false when the encoded body exceeds the
// response ceiling; callers fall back to the untouched original response.
func (e *Executor) Apply(ctx context.Context, input []byte, plan Plan) (string, bool, error) {
	output, err := e.codec.Transform(ctx, input, plan)
	if err != nil {
		return "", false, fmt.Errorf("transform image: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(output)
	if len(encoded) > MaxEncodedBodyBytes {
		return "", false, nil
	}
	return encoded, true, nil
}
