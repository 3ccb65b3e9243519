package simpleasset

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the formats the dimension probe understands.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ProbeDimensions decodes just enough of an image buffer to report its width
// and height. Callers on the ingestion path treat a failure as degradation to
// zero-valued dimensions, never as a fault.
func ProbeDimensions(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUnsupportedImageFormat, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
