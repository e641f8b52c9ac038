package cartoon

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// AdaptiveThreshold binarizes a grayscale image against the mean of each
// pixel's blockSize x blockSize neighborhood.
//
// The local mean is computed with replicated borders and rounded half-to-even
// to an 8-bit value. A pixel becomes 255 when src - mean > -offset, that is
// when it is brighter than (mean - offset); otherwise it becomes 0. Flat
// regions therefore come out white and dark boundaries come out black.
//
// blockSize must be odd and at least 3.
func AdaptiveThreshold(src *image.Gray, blockSize, offset int) *image.Gray {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))
	pix := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):]
	r := blockSize / 2
	area := float64(blockSize * blockSize)

	// Horizontal window sums, one row per source row.
	rowSums := make([]int, width*height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := y * src.Stride
			sum := 0
			for dx := -r; dx <= r; dx++ {
				sum += int(pix[row+clamp(dx, 0, width-1)])
			}
			out := y * width
			rowSums[out] = sum
			for x := 1; x < width; x++ {
				sum -= int(pix[row+clamp(x-r-1, 0, width-1)])
				sum += int(pix[row+clamp(x+r, 0, width-1)])
				rowSums[out+x] = sum
			}
		}
	})

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				sum := 0
				for dy := -r; dy <= r; dy++ {
					sum += rowSums[clamp(y+dy, 0, height-1)*width+x]
				}
				mean := int(math.RoundToEven(float64(sum) / area))
				if int(pix[y*src.Stride+x])-mean > -offset {
					dst.Pix[y*dst.Stride+x] = 255
				}
			}
		}
	})

	return dst
}
