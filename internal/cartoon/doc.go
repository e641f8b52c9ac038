// Package cartoon converts photographs into flat-shaded cartoon renderings.
//
// The transformation combines two independent derivations of the source image:
// a binary edge stencil built from a median-blurred grayscale copy, and a
// color-quantized copy produced by k-means clustering. The quantized colors are
// median-smoothed and then masked by the stencil so that detected boundaries
// are drawn in black.
//
// # Pipeline
//
//  1. Grayscale: fixed-point BT.601 luminance (R*4899 + G*9617 + B*1868) >> 14
//  2. Pre-blur: median filter, window = odd-coerced BlurLevel
//  3. Edge stencil: adaptive mean threshold, window 9, offset 5
//  4. Quantize: k-means over RGB, ColorLevels clusters, 10 restarts
//  5. Post-blur: median filter on the quantized colors
//  6. Composite: keep color where the stencil is 255, black where it is 0
//
// # Parameters
//
// All three parameters are bounded integers (see Params). Out-of-range values
// are rejected with *InvalidParameterError; hosts that want slider semantics
// call Params.Clamp first. An even BlurLevel is rounded up to the next odd
// window size.
//
// EdgeIntensity does not influence the stencil under the default EdgeFixed
// mode; the threshold window is always 9. EdgeScaled maps it onto the window
// size instead. Callers comparing renders across EdgeIntensity values should
// expect identical output under EdgeFixed.
//
// # Determinism
//
// Every stage except quantization is deterministic. Quantization draws its
// initial centroids from a random source; pass WithSeed for reproducible
// output.
//
// # Thread Safety
//
// The package holds no mutable state. Cartoonize may be called concurrently
// on different inputs. Input images are never modified.
package cartoon
