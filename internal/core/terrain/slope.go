package terrain

// SlopeAt estimates the grade in percent at index i as the secant between the
// nearest point at least windowM/2 behind and the nearest point at least
// windowM/2 ahead. A side with no such point falls back to i itself. The
// slope is 0 when both sides collapse onto i or the span is not positive.
func SlopeAt(smoothed, distances []float64, i int, windowM float64) float64 {
	half := windowM / 2
	center := distances[i]

	back := i
	for j := i - 1; j >= 0; j-- {
		if center-distances[j] >= half {
			back = j
			break
		}
	}

	forward := i
	for j := i + 1; j < len(distances); j++ {
		if distances[j]-center >= half {
			forward = j
			break
		}
	}

	if forward == back {
		return 0
	}
	span := distances[forward] - distances[back]
	if span <= 0 {
		return 0
	}
	return (smoothed[forward] - smoothed[back]) / span * 100
}
