package terrain

import "math"

// DefaultWindowM is the smoothing and slope window in meters.
const DefaultWindowM = 100.0

// SmoothElevation returns, for every point, the Gaussian-weighted mean of the
// elevations within windowM meters of it along the route (inclusive), using
// sigma = windowM/3. Distances must be non-decreasing. A non-positive window
// returns a copy of the input.
func SmoothElevation(elevations, distances []float64, windowM float64) []float64 {
	n := len(elevations)
	out := make([]float64, n)
	if windowM <= 0 {
		copy(out, elevations)
		return out
	}

	sigma := windowM / 3
	twoSigmaSq := 2 * sigma * sigma

	lo, hi := 0, 0
	for i := 0; i < n; i++ {
		center := distances[i]
		for center-distances[lo] > windowM {
			lo++
		}
		if hi < i {
			hi = i
		}
		for hi+1 < n && distances[hi+1]-center <= windowM {
			hi++
		}

		var sum, weights float64
		for j := lo; j <= hi; j++ {
			dd := distances[j] - center
			w := math.Exp(-(dd * dd) / twoSigmaSq)
			sum += w * elevations[j]
			weights += w
		}
		// weights >= 1: point i is always inside its own window.
		out[i] = sum / weights
	}
	return out
}
