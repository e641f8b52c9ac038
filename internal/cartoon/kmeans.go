package cartoon

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
)

// Swatch is one cluster of a quantized palette.
type Swatch struct {
	Color color.NRGBA
	Count int // pixels assigned to this cluster
}

// Quantization is the result of clustering an image's colors.
type Quantization struct {
	// Image has every pixel replaced by its cluster's rounded centroid.
	Image *image.NRGBA

	// Palette has one entry per cluster, in cluster order. Clusters that
	// ended up empty have Count 0.
	Palette []Swatch

	// Compactness is the pixel-weighted sum of squared distances to the
	// assigned centroids for the winning restart.
	Compactness float64
}

// colorPoint is a distinct color and the number of pixels carrying it.
type colorPoint struct {
	rgb    [3]float64
	weight float64
}

type kmeansRun struct {
	centers     [][3]float64
	labels      []int
	compactness float64
}

// Quantize clusters the colors of src into k groups with k-means and paints
// every pixel with its cluster's centroid.
//
// Clustering runs KMeansRestarts independent times, each initialized from
// randomly chosen pixels (distinct colors preferred) and refined for at most
// KMeansMaxIterations rounds or until no centroid moves more than
// KMeansEpsilon. The restart with the lowest compactness wins. Restarts run
// concurrently; each draws its seed from rng up front, so a seeded rng gives
// reproducible output.
//
// Pixels sharing a color are clustered as one weighted point, which yields
// the same partition as clustering every pixel individually.
func Quantize(ctx context.Context, src *image.NRGBA, k int, rng *rand.Rand) (*Quantization, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}
	if k < MinColorLevels || k > MaxColorLevels {
		return nil, &InvalidParameterError{Name: "color_levels", Value: k, Min: MinColorLevels, Max: MaxColorLevels}
	}

	points, pixelIndex := uniqueColors(src)

	seeds := make([]int64, KMeansRestarts)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	runs := make([]kmeansRun, KMeansRestarts)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runs[i] = runKMeans(ctx, points, pixelIndex, k, rand.New(rand.NewSource(seeds[i])))
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].compactness < runs[best].compactness {
			best = i
		}
	}
	run := runs[best]

	palette := make([]Swatch, k)
	for j, c := range run.centers {
		palette[j].Color = color.NRGBA{R: roundChannel(c[0]), G: roundChannel(c[1]), B: roundChannel(c[2]), A: 0xff}
	}
	for i, p := range points {
		palette[run.labels[i]].Count += int(p.weight)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				c := palette[run.labels[pixelIndex[y*width+x]]].Color
				dst.Pix[di] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	})

	return &Quantization{
		Image:       dst,
		Palette:     palette,
		Compactness: run.compactness,
	}, nil
}

// uniqueColors collapses src into distinct colors in first-seen order.
// pixelIndex maps each pixel (row-major) to its entry in points.
func uniqueColors(src *image.NRGBA) ([]colorPoint, []int32) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	seen := make(map[uint32]int32)
	points := make([]colorPoint, 0, 256)
	pixelIndex := make([]int32, width*height)

	for y := 0; y < height; y++ {
		si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			r, g, b := src.Pix[si], src.Pix[si+1], src.Pix[si+2]
			key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			idx, ok := seen[key]
			if !ok {
				idx = int32(len(points))
				seen[key] = idx
				points = append(points, colorPoint{rgb: [3]float64{float64(r), float64(g), float64(b)}})
			}
			points[idx].weight++
			pixelIndex[y*width+x] = idx
			si += 4
		}
	}

	return points, pixelIndex
}

// runKMeans performs one restart. A cancelled context yields an infinitely
// bad run so it never wins.
func runKMeans(ctx context.Context, points []colorPoint, pixelIndex []int32, k int, rng *rand.Rand) kmeansRun {
	centers := initialCenters(points, pixelIndex, k, rng)
	labels := make([]int, len(points))
	dists := make([]float64, len(points))

	for iter := 0; iter < KMeansMaxIterations; iter++ {
		if ctx.Err() != nil {
			return kmeansRun{compactness: math.Inf(1)}
		}
		assign(points, centers, labels, dists)
		next := recompute(points, labels, centers)
		shift := maxShift(centers, next)
		centers = next
		if shift <= KMeansEpsilon {
			break
		}
	}

	compactness := assign(points, centers, labels, dists)
	return kmeansRun{centers: centers, labels: labels, compactness: compactness}
}

// initialCenters draws k centroids from uniformly random pixels, skipping
// colors already drawn. Duplicate centroids appear only when the image has
// fewer than k distinct colors.
func initialCenters(points []colorPoint, pixelIndex []int32, k int, rng *rand.Rand) [][3]float64 {
	centers := make([][3]float64, 0, k)
	chosen := make(map[int32]bool, k)

	for tries := 0; len(centers) < k && tries < 16*k; tries++ {
		idx := pixelIndex[rng.Intn(len(pixelIndex))]
		if chosen[idx] {
			continue
		}
		chosen[idx] = true
		centers = append(centers, points[idx].rgb)
	}

	if len(centers) < k {
		offset := rng.Intn(len(points))
		for i := 0; i < len(points) && len(centers) < k; i++ {
			idx := int32((offset + i) % len(points))
			if chosen[idx] {
				continue
			}
			chosen[idx] = true
			centers = append(centers, points[idx].rgb)
		}
	}

	for len(centers) < k {
		centers = append(centers, points[pixelIndex[rng.Intn(len(pixelIndex))]].rgb)
	}

	return centers
}

// assign labels every point with its nearest centroid (lowest index on ties)
// and returns the weighted sum of squared distances. dists is scratch space;
// summing it serially keeps the total independent of goroutine scheduling.
func assign(points []colorPoint, centers [][3]float64, labels []int, dists []float64) float64 {
	parallel.Line(len(points), func(start, end int) {
		for i := start; i < end; i++ {
			best, bestDist := 0, math.MaxFloat64
			for j, c := range centers {
				d := sqDist(points[i].rgb, c)
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			labels[i] = best
			dists[i] = points[i].weight * bestDist
		}
	})

	total := 0.0
	for _, d := range dists {
		total += d
	}
	return total
}

// recompute moves each centroid to the weighted mean of its points. An empty
// cluster takes over the point lying farthest from its own centroid, drawn
// from a cluster that holds at least two distinct colors; when no such point
// exists the empty cluster keeps its previous position.
func recompute(points []colorPoint, labels []int, prev [][3]float64) [][3]float64 {
	k := len(prev)
	sums := make([][4]float64, k)
	distinct := make([]int, k)
	for i, p := range points {
		l := labels[i]
		sums[l][0] += p.rgb[0] * p.weight
		sums[l][1] += p.rgb[1] * p.weight
		sums[l][2] += p.rgb[2] * p.weight
		sums[l][3] += p.weight
		distinct[l]++
	}

	next := make([][3]float64, k)
	for j := range next {
		if sums[j][3] == 0 {
			next[j] = prev[j]
			continue
		}
		next[j] = mean(sums[j])
	}

	for j := range next {
		if distinct[j] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if distinct[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p.rgb, next[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}

		p := points[far]
		donor := labels[far]
		sums[donor][0] -= p.rgb[0] * p.weight
		sums[donor][1] -= p.rgb[1] * p.weight
		sums[donor][2] -= p.rgb[2] * p.weight
		sums[donor][3] -= p.weight
		distinct[donor]--
		next[donor] = mean(sums[donor])

		labels[far] = j
		sums[j] = [4]float64{p.rgb[0] * p.weight, p.rgb[1] * p.weight, p.rgb[2] * p.weight, p.weight}
		distinct[j] = 1
		next[j] = p.rgb
	}

	return next
}

func mean(s [4]float64) [3]float64 {
	return [3]float64{s[0] / s[3], s[1] / s[3], s[2] / s[3]}
}

// maxShift returns the largest Euclidean distance any centroid moved.
func maxShift(a, b [][3]float64) float64 {
	shift := 0.0
	for i := range a {
		if d := sqDist(a[i], b[i]); d > shift {
			shift = d
		}
	}
	return math.Sqrt(shift)
}

func sqDist(a, b [3]float64) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return dr*dr + dg*dg + db*db
}

func roundChannel(v float64) uint8 {
	return uint8(clamp(int(math.Round(v)), 0, 255))
}
