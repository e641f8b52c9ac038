package cartoon

import (
	"context"
	"image"
	"math/rand"
	"time"
)

// Result holds a finished render and the intermediates it was built from.
type Result struct {
	// Image is the final cartoon, same size as the input, opaque.
	Image *image.NRGBA

	// Stencil is the binary edge mask (0 = boundary, 255 = keep color).
	Stencil *image.Gray

	// Quantized is the k-means color image before smoothing.
	Quantized *image.NRGBA

	// Smoothed is Quantized after the median post-blur.
	Smoothed *image.NRGBA

	// Palette lists the cluster colors and their pixel counts.
	Palette []Swatch

	// Compactness of the winning k-means restart.
	Compactness float64

	// Params are the parameters the render ran with.
	Params Params

	// KernelSize is the median window actually used (BlurLevel rounded up to odd).
	KernelSize int

	// BlockSize is the adaptive threshold window actually used.
	BlockSize int

	// EdgeMode is the mode the stencil was built under.
	EdgeMode EdgeMode
}

// EdgeFraction returns the share of pixels drawn as boundaries, in [0, 1].
func (r *Result) EdgeFraction() float64 {
	return EdgeCoverage(r.Stencil)
}

type options struct {
	seed     int64
	seeded   bool
	edgeMode EdgeMode
}

// Option configures a render.
type Option func(*options)

// WithSeed fixes the random source used to initialize clustering.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithEdgeMode selects how EdgeIntensity is interpreted. Default EdgeFixed.
func WithEdgeMode(mode EdgeMode) Option {
	return func(o *options) {
		o.edgeMode = mode
	}
}

func buildOptions(opts []Option) options {
	o := options{edgeMode: EdgeFixed}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) rng() *rand.Rand {
	if o.seeded {
		return rand.New(rand.NewSource(o.seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Cartoonize renders img as a cartoon. See CartoonizeContext.
func Cartoonize(img image.Image, p Params, opts ...Option) (*Result, error) {
	return CartoonizeContext(context.Background(), img, p, opts...)
}

// CartoonizeContext renders img as a cartoon using the six-stage pipeline
// described in the package documentation.
//
// Parameters:
//   - ctx: checked between stages and between clustering iterations. A
//     cancelled context aborts the render and returns ctx.Err().
//   - img: the source photograph. Any image.Image is accepted; it is copied
//     into an opaque 8-bit RGB representation and never modified.
//   - p: render parameters. They must satisfy Params.Validate.
//
// Returns:
//   - *Result: the cartoon and its intermediates, same size as img.
//   - error: ErrEmptyImage for a nil or zero-sized image,
//     *InvalidParameterError for out-of-range parameters, or ctx.Err().
//     No partial result is ever returned alongside an error.
func CartoonizeContext(ctx context.Context, img image.Image, p Params, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	src, err := prepare(img, p)
	if err != nil {
		return nil, err
	}
	ksize := p.KernelSize()
	block := p.BlockSize(o.edgeMode)

	stencil := AdaptiveThreshold(MedianGray(Grayscale(src), ksize), block, ThresholdOffset)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quant, err := Quantize(ctx, src, p.ColorLevels, o.rng())
	if err != nil {
		return nil, err
	}

	smoothed := MedianNRGBA(quant.Image, ksize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := Composite(smoothed, stencil)
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:       out,
		Stencil:     stencil,
		Quantized:   quant.Image,
		Smoothed:    smoothed,
		Palette:     quant.Palette,
		Compactness: quant.Compactness,
		Params:      p,
		KernelSize:  ksize,
		BlockSize:   block,
		EdgeMode:    o.edgeMode,
	}, nil
}

// EdgeStencil runs only the edge stages (grayscale, median, adaptive
// threshold) and returns the binary stencil. ColorLevels is still validated.
func EdgeStencil(img image.Image, p Params, opts ...Option) (*image.Gray, error) {
	o := buildOptions(opts)

	src, err := prepare(img, p)
	if err != nil {
		return nil, err
	}
	gray := MedianGray(Grayscale(src), p.KernelSize())
	return AdaptiveThreshold(gray, p.BlockSize(o.edgeMode), ThresholdOffset), nil
}

func prepare(img image.Image, p Params) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return normalize(img), nil
}

// EdgeCoverage returns the share of stencil pixels that are 0 (boundaries).
func EdgeCoverage(stencil *image.Gray) float64 {
	if stencil == nil {
		return 0
	}
	b := stencil.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	edges := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := stencil.Pix[stencil.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] == 0 {
				edges++
			}
		}
	}
	return float64(edges) / float64(total)
}
