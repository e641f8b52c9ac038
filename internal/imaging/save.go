package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when SaveOptions.JPEGQuality is zero.
const DefaultJPEGQuality = 95

// EncodeError reports that an image could not be encoded or written.
type EncodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("failed to save image %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to save %s image %s: %v", e.Format, e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// SaveOptions controls encoding.
type SaveOptions struct {
	// JPEGQuality is the JPEG quality (1-100). Zero means DefaultJPEGQuality.
	// Ignored for other formats.
	JPEGQuality int
}

// SaveResult describes a written file.
type SaveResult struct {
	Path          string `json:"path"`
	Format        string `json:"format"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Save encodes img to path, choosing the format from the file extension.
//
// Supported extensions are .png, .jpg/.jpeg, .gif, .bmp and .tif/.tiff. The
// image is flattened to opaque RGB before encoding.
//
// The data is written to a temporary file in the destination directory and
// renamed into place, so a failed save never leaves a partial file at path
// and never disturbs an existing file there.
//
// Any failure is returned as a *EncodeError.
func Save(img image.Image, path string, opts SaveOptions) (*SaveResult, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return nil, &EncodeError{Path: path, Err: err}
	}
	name := strings.ToLower(format.String())

	quality := opts.JPEGQuality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if format == imaging.JPEG && (quality < 1 || quality > 100) {
		return nil, &EncodeError{Path: path, Format: name,
			Err: fmt.Errorf("jpeg quality %d outside 1-100", quality)}
	}

	if img == nil || img.Bounds().Empty() {
		return nil, &EncodeError{Path: path, Format: name, Err: fmt.Errorf("image is empty")}
	}
	rgb := ToRGB(img)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, &EncodeError{Path: path, Format: name, Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	tmpName := tmp.Name()

	fail := func(err error) (*SaveResult, error) {
		tmp.Close()
		os.Remove(tmpName)
		return nil, &EncodeError{Path: path, Format: name, Err: err}
	}

	if err := imaging.Encode(tmp, rgb, format, imaging.JPEGQuality(quality)); err != nil {
		return fail(fmt.Errorf("failed to encode image: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to flush file: %w", err))
	}
	stat, err := tmp.Stat()
	if err != nil {
		return fail(fmt.Errorf("failed to stat file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, &EncodeError{Path: path, Format: name, Err: fmt.Errorf("failed to close file: %w", err)}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, &EncodeError{Path: path, Format: name, Err: fmt.Errorf("failed to rename file: %w", err)}
	}

	bounds := rgb.Bounds()
	return &SaveResult{
		Path:          path,
		Format:        name,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// ToRGB copies img into an opaque NRGBA image with origin (0,0).
//
// Transparency is discarded without blending: each pixel keeps its
// unpremultiplied color and gets alpha 255.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
