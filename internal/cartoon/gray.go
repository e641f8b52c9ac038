package cartoon

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// Fixed-point BT.601 luma weights, scaled by 1<<14.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// normalize copies img into an opaque NRGBA with origin (0,0). Transparency
// is dropped rather than blended, so a half-transparent red pixel stays red.
func normalize(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Grayscale converts an opaque color image to single-channel luminance.
//
// The weighting is BT.601 (0.299 R + 0.587 G + 0.114 B) in 14-bit fixed
// point with round-half-up, bit-compatible with OpenCV's RGB2GRAY.
func Grayscale(src *image.NRGBA) *image.Gray {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				r := uint32(src.Pix[si])
				g := uint32(src.Pix[si+1])
				b := uint32(src.Pix[si+2])
				dst.Pix[di+x] = uint8((r*lumaR + g*lumaG + b*lumaB + 1<<(lumaShift-1)) >> lumaShift)
				si += 4
			}
		}
	})

	return dst
}
