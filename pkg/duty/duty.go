package duty

const (
	// FullScale is the largest 12-bit reading.
	FullScale = 4095
	// Max is the duty percent at or above full scale.
	Max = 100
)

// FromReading converts a 12-bit reading (0-4095) to a duty percent (0-100).
// Readings at or above full scale map to exactly 100; everything else is
// truncated, not rounded.
func FromReading(reading uint16) uint8 {
	if reading >= FullScale {
		return Max
	}
	return uint8(uint32(reading) * Max / FullScale)
}

// IsHigh reports whether d exceeds threshold.
func IsHigh(d uint8, threshold uint8) bool {
	return d > threshold
}
