package transform

import "math"

// Fit is the resize policy applied when both axes are constrained.
type Fit string

const (
	// FitInside shrinks the image to fit within the requested bounds while
	// preserving its aspect ratio.
	FitInside Fit = "inside"
	// FitCover scales and center-crops the image to exactly fill the bounds.
	FitCover Fit = "cover"
)

// ResizeSpec describes a requested resize. A zero Width or Height leaves that
// axis unconstrained. Enlargement beyond the source dimensions never happens.
type ResizeSpec struct {
	Width  int
	Height int
	Fit    Fit
}

// ResolveGeometry derives the resize specification from the directives, or nil
// when no resize was requested.
func ResolveGeometry(d Directives) *ResizeSpec {
	if d.Width == 0 && d.Height == 0 {
		return nil
	}

	fit := FitInside
	if d.Cropped {
		fit = FitCover
	}
	return &ResizeSpec{Width: d.Width, Height: d.Height, Fit: fit}
}

// scaleFor returns the uniform scale factor a spec applies to a srcW×srcH
// image, capped at 1.
func scaleFor(srcW, srcH int, spec ResizeSpec) float64 {
	var scale float64
	switch {
	case spec.Width > 0 && spec.Height > 0:
		wr := float64(spec.Width) / float64(srcW)
		hr := float64(spec.Height) / float64(srcH)
		if spec.Fit == FitCover {
			scale = math.Max(wr, hr)
		} else {
			scale = math.Min(wr, hr)
		}
	case spec.Width > 0:
		scale = float64(spec.Width) / float64(srcW)
	default:
		scale = float64(spec.Height) / float64(srcH)
	}

	if scale > 1 {
		scale = 1
	}
	return scale
}

// scaledSize returns the pre-crop dimensions after scaling.
func scaledSize(srcW, srcH int, spec ResizeSpec) (int, int) {
	scale := scaleFor(srcW, srcH, spec)
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// outputSize returns the final dimensions a resize produces, including the
// center crop a cover fit applies when both axes are constrained.
func outputSize(srcW, srcH int, spec ResizeSpec) (int, int) {
	w, h := scaledSize(srcW, srcH, spec)
	if spec.Fit == FitCover && spec.Width > 0 && spec.Height > 0 {
		if spec.Width < w {
			w = spec.Width
		}
		if spec.Height < h {
			h = spec.Height
		}
	}
	return w, h
}
