package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type stdCodec struct{}

func (stdCodec) Transform(ctx context.Context, input []byte, plan Plan) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	src, srcFormat, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	if plan.Resize != nil {
		src = resizeImage(src, *plan.Resize)
	}

	format := plan.Encode
	if format == "" {
		format = formatFromName(srcFormat)
	}

	return encodeImage(src, format, plan.Quality)
}

func formatFromName(name string) Format {
	switch name {
	case "jpeg":
		return FormatJPEG
	case "gif":
		return FormatGIF
	case "webp":
		return FormatWEBP
	default:
		return FormatPNG
	}
}

func resizeImage(src image.Image, spec ResizeSpec) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return src
	}

	scaledW, scaledH := scaledSize(srcW, srcH, spec)
	out := src
	if scaledW != srcW || scaledH != srcH {
		dst := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
		out = dst
	}

	if spec.Fit == FitCover && spec.Width > 0 && spec.Height > 0 {
		cropW, cropH := outputSize(srcW, srcH, spec)
		if cropW != scaledW || cropH != scaledH {
			out = centerCrop(out, cropW, cropH)
		}
	}

	return out
}

func centerCrop(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	x0 := bounds.Min.X + (bounds.Dx()-width)/2
	y0 := bounds.Min.Y + (bounds.Dy()-height)/2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Copy(dst, image.Point{}, src, image.Rect(x0, y0, x0+width, y0+height), xdraw.Src, nil)
	return dst
}

func encodeImage(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatGIF:
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
	case FormatWEBP:
		return nil, errors.New("webp encode requires govips build tag")
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return buf.Bytes(), nil
}
