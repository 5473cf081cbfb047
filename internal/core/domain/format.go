package domain

import (
	"fmt"
	"math"
)

// FormatDuration renders hours as "Xh Ym", truncating minutes.
func FormatDuration(hours float64) string {
	if math.IsNaN(hours) || hours < 0 {
		return "N/A"
	}
	h := int(hours)
	m := int(math.Mod(hours, 1) * 60)
	return fmt.Sprintf("%dh %dm", h, m)
}

func FormatDistance(km float64) string { return fmt.Sprintf("%.2f km", km) }

func FormatSpeed(kmh float64) string { return fmt.Sprintf("%.2f km/h", kmh) }

func FormatElevation(m float64) string { return fmt.Sprintf("%.0f m", m) }
