// Package preview implements the preview-generation strategy for asset
// ingestion using github.com/disintegration/imaging.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	// Register the webp decoder; imaging itself registers jpeg, png, gif,
	// tiff and bmp.
	_ "golang.org/x/image/webp"
)

// Config options for the image preview generator
type Config struct {
	MaxWidth    int // Maximum preview width in pixels (default: 1600)
	MaxHeight   int // Maximum preview height in pixels (default: 1600)
	JPEGQuality int // JPEG encoding quality 1-100 (default: 85)
}

// ImageGenerator generates preview buffers from source bytes. Image sources
// are decoded and scaled down to the configured bounds; everything else gets
// a fixed placeholder image so binary and video assets still ingest with a
// usable preview key.
type ImageGenerator struct {
	maxWidth    int
	maxHeight   int
	jpegQuality int
}

// NewImageGenerator creates a new image preview generator
func NewImageGenerator(config Config) *ImageGenerator {
	if config.MaxWidth <= 0 {
		config.MaxWidth = 1600
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = 1600
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = 85
	}
	return &ImageGenerator{
		maxWidth:    config.MaxWidth,
		maxHeight:   config.MaxHeight,
		jpegQuality: config.JPEGQuality,
	}
}

// GeneratePreviewImage produces the preview buffer for the given source.
// Decode or encode failures are returned to the caller and are fatal for the
// ingestion of that item.
func (g *ImageGenerator) GeneratePreviewImage(ctx context.Context, mimeType string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return g.placeholder()
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image (%s): %w", mimeType, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > g.maxWidth || bounds.Dy() > g.maxHeight {
		img = imaging.Fit(img, g.maxWidth, g.maxHeight, imaging.Lanczos)
	}

	format := formatForMimeType(mimeType)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(g.jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode preview image: %w", err)
	}
	return buf.Bytes(), nil
}

// placeholder renders a neutral gray tile for sources that cannot be decoded
// as images (video, archives, documents).
func (g *ImageGenerator) placeholder() ([]byte, error) {
	img := imaging.New(320, 320, color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode placeholder image: %w", err)
	}
	return buf.Bytes(), nil
}

// formatForMimeType picks the encoding format for a preview. Formats imaging
// cannot encode (webp) fall back to JPEG.
func formatForMimeType(mimeType string) imaging.Format {
	switch mimeType {
	case "image/png":
		return imaging.PNG
	case "image/gif":
		return imaging.GIF
	case "image/tiff":
		return imaging.TIFF
	case "image/bmp":
		return imaging.BMP
	default:
		return imaging.JPEG
	}
}
