package imaging

import (
	"image/color"
	"math"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// PaletteEntry describes one color of a quantized palette.
type PaletteEntry struct {
	Hex        string   `json:"hex"` // "#RRGGBB"
	RGB        RGBColor `json:"rgb"`
	HSL        HSLColor `json:"hsl"`
	Pixels     int      `json:"pixels"`
	Percentage float64  `json:"percentage"` // Share of all pixels (0-100)
}

// PaletteResult lists palette colors, most frequent first.
type PaletteResult struct {
	Colors      []PaletteEntry `json:"colors"`
	TotalPixels int            `json:"total_pixels"`
}

// DescribePalette reports colors and their pixel counts in several
// representations. colors and counts are parallel slices; entries with a zero
// count are left out. Ties in frequency keep their input order.
func DescribePalette(colors []color.NRGBA, counts []int) *PaletteResult {
	total := 0
	for i := range colors {
		if i < len(counts) {
			total += counts[i]
		}
	}

	entries := make([]PaletteEntry, 0, len(colors))
	for i, c := range colors {
		if i >= len(counts) || counts[i] <= 0 {
			continue
		}
		entries = append(entries, PaletteEntry{
			Hex:        strings.ToUpper(toColorful(c).Hex()),
			RGB:        RGBColor{R: c.R, G: c.G, B: c.B},
			HSL:        toHSL(c),
			Pixels:     counts[i],
			Percentage: float64(counts[i]) / float64(total) * 100,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Pixels > entries[j].Pixels
	})

	return &PaletteResult{Colors: entries, TotalPixels: total}
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func toHSL(c color.NRGBA) HSLColor {
	h, s, l := toColorful(c).Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
