package cartoon

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// MedianGray applies a ksize x ksize median filter to a grayscale image.
// Borders replicate the outermost pixels. ksize must be odd; a window of 1
// returns an unmodified copy.
func MedianGray(src *image.Gray, ksize int) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	pix := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):]
	if ksize <= 1 {
		copyRows(dst.Pix, dst.Stride, pix, src.Stride, bounds.Dx(), bounds.Dy())
		return dst
	}
	medianChannel(dst.Pix, dst.Stride, pix, src.Stride, 1, 0, bounds.Dx(), bounds.Dy(), ksize)
	return dst
}

// MedianNRGBA applies the median filter independently to the red, green and
// blue channels. The output is opaque.
func MedianNRGBA(src *image.NRGBA, ksize int) *image.NRGBA {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):]
	if ksize <= 1 {
		copyRows(dst.Pix, dst.Stride, pix, src.Stride, width*4, height)
	} else {
		for ch := 0; ch < 3; ch++ {
			medianChannel(dst.Pix, dst.Stride, pix, src.Stride, 4, ch, width, height, ksize)
		}
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// medianChannel filters one interleaved channel using a sliding 256-bin
// histogram per row (Huang's method). src and dst share the pixel layout but
// not necessarily the stride.
//
// bpp is bytes per pixel and ch the channel offset within a pixel.
func medianChannel(dst []uint8, dstStride int, src []uint8, stride, bpp, ch, width, height, ksize int) {
	r := ksize / 2
	half := ksize * ksize / 2

	parallel.Line(height, func(start, end int) {
		var hist [256]int
		for y := start; y < end; y++ {
			hist = [256]int{}
			for dy := -r; dy <= r; dy++ {
				row := clamp(y+dy, 0, height-1) * stride
				for dx := -r; dx <= r; dx++ {
					hist[src[row+clamp(dx, 0, width-1)*bpp+ch]]++
				}
			}

			out := y * dstStride
			for x := 0; x < width; x++ {
				if x > 0 {
					leaving := clamp(x-r-1, 0, width-1)*bpp + ch
					entering := clamp(x+r, 0, width-1)*bpp + ch
					for dy := -r; dy <= r; dy++ {
						row := clamp(y+dy, 0, height-1) * stride
						hist[src[row+leaving]]--
						hist[src[row+entering]]++
					}
				}
				dst[out+x*bpp+ch] = histogramMedian(&hist, half)
			}
		}
	})
}

// histogramMedian returns the value at sorted position half.
func histogramMedian(hist *[256]int, half int) uint8 {
	seen := 0
	for v := 0; v < 256; v++ {
		seen += hist[v]
		if seen > half {
			return uint8(v)
		}
	}
	return 255
}

func copyRows(dst []uint8, dstStride int, src []uint8, srcStride int, rowBytes, height int) {
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
}
