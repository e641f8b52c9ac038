package cartoon

import (
	"fmt"
	"strings"
)

// Parameter bounds and defaults.
const (
	MinEdgeIntensity     = 100
	MaxEdgeIntensity     = 500
	DefaultEdgeIntensity = 300

	MinColorLevels     = 2
	MaxColorLevels     = 20
	DefaultColorLevels = 7

	MinBlurLevel     = 1
	MaxBlurLevel     = 15
	DefaultBlurLevel = 5
)

// Fixed constants of the edge and quantization stages.
const (
	ThresholdBlockSize = 9
	ThresholdOffset    = 5

	KMeansMaxIterations = 20
	KMeansRestarts      = 10
	KMeansEpsilon       = 1.0
)

// Params holds the three user-tunable knobs of a cartoon render.
type Params struct {
	// EdgeIntensity is in [100, 500]. Only consulted under EdgeScaled.
	EdgeIntensity int `json:"edge_intensity"`

	// ColorLevels is the number of k-means clusters, in [2, 20].
	ColorLevels int `json:"color_levels"`

	// BlurLevel is the median window, in [1, 15]. Even values are rounded up.
	BlurLevel int `json:"blur_level"`
}

// DefaultParams returns the initial parameter set (300, 7, 5).
func DefaultParams() Params {
	return Params{
		EdgeIntensity: DefaultEdgeIntensity,
		ColorLevels:   DefaultColorLevels,
		BlurLevel:     DefaultBlurLevel,
	}
}

// Validate reports the first parameter outside its range.
func (p Params) Validate() error {
	if p.EdgeIntensity < MinEdgeIntensity || p.EdgeIntensity > MaxEdgeIntensity {
		return &InvalidParameterError{Name: "edge_intensity", Value: p.EdgeIntensity, Min: MinEdgeIntensity, Max: MaxEdgeIntensity}
	}
	if p.ColorLevels < MinColorLevels || p.ColorLevels > MaxColorLevels {
		return &InvalidParameterError{Name: "color_levels", Value: p.ColorLevels, Min: MinColorLevels, Max: MaxColorLevels}
	}
	if p.BlurLevel < MinBlurLevel || p.BlurLevel > MaxBlurLevel {
		return &InvalidParameterError{Name: "blur_level", Value: p.BlurLevel, Min: MinBlurLevel, Max: MaxBlurLevel}
	}
	return nil
}

// Clamp returns a copy with every field forced into its range.
func (p Params) Clamp() Params {
	return Params{
		EdgeIntensity: clamp(p.EdgeIntensity, MinEdgeIntensity, MaxEdgeIntensity),
		ColorLevels:   clamp(p.ColorLevels, MinColorLevels, MaxColorLevels),
		BlurLevel:     clamp(p.BlurLevel, MinBlurLevel, MaxBlurLevel),
	}
}

// KernelSize returns the median window for BlurLevel, rounding even values
// up to the next odd size.
func (p Params) KernelSize() int {
	if p.BlurLevel%2 == 0 {
		return p.BlurLevel + 1
	}
	return p.BlurLevel
}

// BlockSize returns the adaptive threshold window for the given mode.
func (p Params) BlockSize(mode EdgeMode) int {
	if mode == EdgeScaled {
		return 2*(p.EdgeIntensity/50) + 1
	}
	return ThresholdBlockSize
}

func (p Params) String() string {
	return fmt.Sprintf("edge=%d colors=%d blur=%d", p.EdgeIntensity, p.ColorLevels, p.BlurLevel)
}

// EdgeMode selects how EdgeIntensity feeds the threshold stage.
type EdgeMode int

const (
	// EdgeFixed always thresholds with a 9x9 window; EdgeIntensity is ignored.
	EdgeFixed EdgeMode = iota

	// EdgeScaled derives the window from EdgeIntensity: 2*(EdgeIntensity/50)+1.
	EdgeScaled
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeScaled:
		return "scaled"
	default:
		return "fixed"
	}
}

// ParseEdgeMode accepts "fixed", "scaled", or "" (fixed).
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return EdgeFixed, nil
	case "scaled":
		return EdgeScaled, nil
	default:
		return EdgeFixed, fmt.Errorf("unknown edge mode: %s", s)
	}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
