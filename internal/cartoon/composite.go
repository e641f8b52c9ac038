package cartoon

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// Composite masks colors with a binary stencil: pixels where the stencil is
// 255 keep their color, every other pixel becomes opaque black.
//
// Both images must have the same dimensions.
func Composite(colors *image.NRGBA, stencil *image.Gray) (*image.NRGBA, error) {
	cb := colors.Bounds()
	sb := stencil.Bounds()
	if cb.Dx() != sb.Dx() || cb.Dy() != sb.Dy() {
		return nil, fmt.Errorf("stencil size %dx%d does not match image size %dx%d",
			sb.Dx(), sb.Dy(), cb.Dx(), cb.Dy())
	}

	width, height := cb.Dx(), cb.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			ci := colors.PixOffset(cb.Min.X, cb.Min.Y+y)
			si := stencil.PixOffset(sb.Min.X, sb.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				if stencil.Pix[si+x] == 255 {
					dst.Pix[di] = colors.Pix[ci]
					dst.Pix[di+1] = colors.Pix[ci+1]
					dst.Pix[di+2] = colors.Pix[ci+2]
				}
				dst.Pix[di+3] = 0xff
				ci += 4
				di += 4
			}
		}
	})

	return dst, nil
}
