package positioning

import (
	"fmt"
	"math"
)

// ReferenceDistance is the path-loss model reference distance in metres. The
// transmitted power of a source is defined at this distance.
const ReferenceDistance = 1.0

// DistanceFromRSSI converts a received power to a distance using the
// log-distance path-loss model:
//
//	d = d0 * 10^((txPower - rssi) / (10 * exponent))
func DistanceFromRSSI(rssi, txPower, exponent float64) (float64, error) {
	if exponent <= 0 {
		return 0, fmt.Errorf("%w: path loss exponent must be positive, got %f", ErrInvalidArgument, exponent)
	}
	return ReferenceDistance * math.Pow(10, (txPower-rssi)/(10*exponent)), nil
}

// DistanceStdDevFromRSSI propagates an RSSI standard deviation (dBm) to a
// distance standard deviation (metres) by first-order linearization of the
// path-loss model around the converted distance.
func DistanceStdDevFromRSSI(distance, exponent, rssiStdDev float64) float64 {
	return math.Ln10 / (10 * exponent) * distance * rssiStdDev
}
