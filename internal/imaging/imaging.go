// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded images and generates downscaled JPEG
// variants for portfolio avatars and project cards. Variants wider than
// the source are skipped to avoid upscaling.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxPixels caps decoded image size. 10000x10000 is ~400 MB in RGBA.
const MaxPixels = 100_000_000

// ErrUnsupported is returned for content that is not an accepted image.
var ErrUnsupported = errors.New("unsupported image type")

// allowedTypes are the sniffed content types accepted for upload. SVG is
// excluded because it can carry script.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Variant describes a single output size.
type Variant struct {
	Name    string // e.g. "thumb"
	Width   int    // target width in pixels
	Quality int    // JPEG quality 1-100
}

// DefaultVariants are generated for every upload.
var DefaultVariants = []Variant{
	{Name: "thumb", Width: 400, Quality: 80},
	{Name: "md", Width: 1024, Quality: 82},
}

// Info describes an inspected upload.
type Info struct {
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// ProcessedImage holds one generated variant ready for upload.
type ProcessedImage struct {
	Name        string
	Width       int
	Height      int
	Data        []byte
	ContentType string // always "image/jpeg"
}

// Inspect sniffs the content type of data and reads its dimensions
// without a full decode.
func Inspect(data []byte) (*Info, error) {
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	contentType := http.DetectContentType(sniff)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	return &Info{ContentType: contentType, Extension: ext, Width: cfg.Width, Height: cfg.Height}, nil
}

// GenerateVariants creates a JPEG variant of original for each entry of
// variants narrower than the source. GIFs are returned without variants
// to preserve animation.
func GenerateVariants(original []byte, info *Info, variants []Variant) ([]ProcessedImage, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	if info.ContentType == "image/gif" {
		return nil, nil
	}

	var src image.Image
	var results []ProcessedImage
	for _, v := range variants {
		if v.Width <= 0 || v.Width >= info.Width {
			continue
		}
		if src == nil {
			img, _, err := image.Decode(bytes.NewReader(original))
			if err != nil {
				return nil, fmt.Errorf("decode image: %w", err)
			}
			src = img
		}

		bounds := src.Bounds()
		height := int(float64(bounds.Dy()) * float64(v.Width) / float64(bounds.Dx()))
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, v.Width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: v.Quality}); err != nil {
			return nil, fmt.Errorf("encode %s variant: %w", v.Name, err)
		}
		results = append(results, ProcessedImage{
			Name:        v.Name,
			Width:       v.Width,
			Height:      height,
			Data:        buf.Bytes(),
			ContentType: "image/jpeg",
		})
	}
	return results, nil
}
