package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DecodeError reports that an image could not be read or decoded.
//
// Path is empty when the data did not come from a file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ImageInfo contains metadata about a decoded image.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation is applied.
	Height int `json:"height"`

	// Format is the format name detected from the file contents:
	// "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the stored color model carries transparency.
	// Transparency is always dropped before processing.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded data in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Load reads and decodes the image at path.
//
// The file is read from disk on every call; nothing is cached, so an image
// replaced on disk between calls is always picked up.
//
// Parameters:
//   - path: Path to the image file. The format is detected from the file
//     contents, not the extension.
//
// Returns:
//   - image.Image: The decoded image, rotated according to any EXIF
//     orientation tag.
//   - *ImageInfo: Metadata about the image.
//   - error: A *DecodeError if the file cannot be read or is not a supported
//     image.
func Load(path string) (image.Image, *ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}

	img, info, err := decode(data)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}
	return img, info, nil
}

// Decode decodes an in-memory encoded image.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. Any failure is
// returned as a *DecodeError with an empty Path.
func Decode(data []byte) (image.Image, *ImageInfo, error) {
	img, info, err := decode(data)
	if err != nil {
		return nil, nil, &DecodeError{Err: err}
	}
	return img, info, nil
}

func decode(data []byte) (image.Image, *ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}

	hasAlpha, colorDepth := describeModel(cfg.ColorModel)
	return img, &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: int64(len(data)),
	}, nil
}

// Inspect returns metadata for the image at path without decoding pixels.
//
// Width and Height are the stored dimensions; EXIF orientation is not
// applied.
func Inspect(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("failed to stat file: %w", err)}
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	hasAlpha, colorDepth := describeModel(cfg.ColorModel)
	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

func describeModel(m color.Model) (hasAlpha bool, colorDepth string) {
	colorDepth = "8-bit"
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		hasAlpha = true
	case color.RGBA64Model, color.NRGBA64Model:
		hasAlpha = true
		colorDepth = "16-bit"
	case color.Gray16Model:
		colorDepth = "16-bit"
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				hasAlpha = true
				break
			}
		}
	}
	return hasAlpha, colorDepth
}
