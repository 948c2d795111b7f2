package sunset

import (
	"fmt"
	"math"
)

var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// DirectionToCardinal maps compass degrees to one of eight labels using
// round(deg/45) mod 8. Halves round to even and the modulo is never negative,
// so the mapping is periodic in 360°.
func DirectionToCardinal(degrees float64) string {
	idx := int(math.Mod(math.RoundToEven(degrees/45), 8))
	if idx < 0 {
		idx += 8
	}
	return cardinals[idx]
}

// FormatDirection renders "S (200º)", or "N/A" when absent.
func FormatDirection(degrees *float64) string {
	if degrees == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%s (%.0fº)", DirectionToCardinal(*degrees), *degrees)
}
