package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a display-sized copy of an image.
type PreviewResult struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	ImageBase64    string `json:"image_base64"`
	MimeType       string `json:"mime_type"`
}

// Preview scales img to fit within maxDim x maxDim, keeping the aspect ratio,
// and returns it as base64-encoded PNG. Images already within the bounds are
// not upscaled.
func Preview(img image.Image, maxDim int) (*PreviewResult, error) {
	if maxDim <= 0 {
		return nil, fmt.Errorf("invalid preview size: %d", maxDim)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot preview an empty image")
	}

	scaled := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:          scaled.Bounds().Dx(),
		Height:         scaled.Bounds().Dy(),
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		ImageBase64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:       "image/png",
	}, nil
}
