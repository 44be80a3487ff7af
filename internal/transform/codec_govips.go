//go:build govips && cgo

package transform

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type vipsCodec struct{}

func (vipsCodec) Transform(ctx context.Context, input []byte, plan Plan) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if plan.Resize != nil {
		if err := applyVipsResize(img, *plan.Resize); err != nil {
			return nil, err
		}
	}

	format := plan.Encode
	if format == "" {
		format = formatFromImageType(vips.DetermineImageType(input))
	}

	return exportVipsImage(img, format, plan.Quality)
}

func applyVipsResize(img *vips.ImageRef, spec ResizeSpec) error {
	srcW, srcH := img.Width(), img.Height()
	if srcW <= 0 || srcH <= 0 {
		return fmt.Errorf("source image has invalid dimensions")
	}

	targetW, targetH := outputSize(srcW, srcH, spec)
	interest := vips.InterestingNone
	if spec.Fit == FitCover && spec.Width > 0 && spec.Height > 0 {
		interest = vips.InterestingCentre
	}

	if err := img.ThumbnailWithSize(targetW, targetH, interest, vips.SizeDown); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}

func formatFromImageType(imageType vips.ImageType) Format {
	switch imageType {
	case vips.ImageTypeJPEG:
		return FormatJPEG
	case vips.ImageTypeGIF:
		return FormatGIF
	case vips.ImageTypeWEBP:
		return FormatWEBP
	default:
		return FormatPNG
	}
}

func exportVipsImage(img *vips.ImageRef, format Format, quality int) ([]byte, error) {
	switch format {
	case FormatJPEG:
		params := vips.NewJpegExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case FormatPNG:
		params := vips.NewPngExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case FormatWEBP:
		params := vips.NewWebpExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	case FormatGIF:
		params := vips.NewGifExportParams()
		data, _, err := img.ExportGIF(params)
		if err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
