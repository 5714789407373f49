package core

import "math"

// DefaultMaxVolume is the ceiling assumed before the receiver reports MVMAX.
const DefaultMaxVolume = 98.0

// Quantize rounds v to the zone's volume resolution: half steps on Main,
// whole units on Zone 2 and Zone 3.
func Quantize(z ZoneID, v float64) float64 {
	if z == ZoneMain {
		return math.Round(v*2) / 2
	}
	return math.Round(v)
}

// ClampVolume limits v to [0, ceiling].
func ClampVolume(v, ceiling float64) float64 {
	return math.Max(0, math.Min(v, ceiling))
}
