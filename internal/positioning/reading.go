package positioning

import (
	"fmt"
	"time"
)

type ReadingType string

const (
	ReadingTypeRanging        ReadingType = "RANGING"
	ReadingTypeRSSI           ReadingType = "RSSI"
	ReadingTypeRangingAndRSSI ReadingType = "RANGING_AND_RSSI"
)

// Reading is a single observation of one radio source. Depending on Type it
// carries a measured distance, a received power, or both. Standard deviations
// are optional; the helper builders substitute defaults when absent.
type Reading struct {
	SourceMac string
	Type      ReadingType

	Distance       float64
	DistanceStdDev *float64

	RSSI       float64
	RSSIStdDev *float64

	Timestamp time.Time
}

func NewRangingReading(sourceMac string, distance float64) (*Reading, error) {
	if err := validateReadingSource(sourceMac); err != nil {
		return nil, err
	}
	if err := validateDistance(distance); err != nil {
		return nil, err
	}
	return &Reading{
		SourceMac: sourceMac,
		Type:      ReadingTypeRanging,
		Distance:  distance,
		Timestamp: time.Now(),
	}, nil
}

func NewRSSIReading(sourceMac string, rssi float64) (*Reading, error) {
	if err := validateReadingSource(sourceMac); err != nil {
		return nil, err
	}
	return &Reading{
		SourceMac: sourceMac,
		Type:      ReadingTypeRSSI,
		RSSI:      rssi,
		Timestamp: time.Now(),
	}, nil
}

func NewRangingAndRSSIReading(sourceMac string, distance, rssi float64) (*Reading, error) {
	if err := validateReadingSource(sourceMac); err != nil {
		return nil, err
	}
	if err := validateDistance(distance); err != nil {
		return nil, err
	}
	return &Reading{
		SourceMac: sourceMac,
		Type:      ReadingTypeRangingAndRSSI,
		Distance:  distance,
		RSSI:      rssi,
		Timestamp: time.Now(),
	}, nil
}

// WithDistanceStdDev attaches a measured ranging standard deviation.
func (r *Reading) WithDistanceStdDev(stdDev float64) (*Reading, error) {
	if stdDev <= 0 {
		return nil, fmt.Errorf("%w: distance standard deviation must be positive, got %f", ErrInvalidArgument, stdDev)
	}
	r.DistanceStdDev = &stdDev
	return r, nil
}

// WithRSSIStdDev attaches a measured RSSI standard deviation in dBm.
func (r *Reading) WithRSSIStdDev(stdDev float64) (*Reading, error) {
	if stdDev <= 0 {
		return nil, fmt.Errorf("%w: rssi standard deviation must be positive, got %f", ErrInvalidArgument, stdDev)
	}
	r.RSSIStdDev = &stdDev
	return r, nil
}

func (r *Reading) HasDistance() bool {
	return r.Type == ReadingTypeRanging || r.Type == ReadingTypeRangingAndRSSI
}

func (r *Reading) HasRSSI() bool {
	return r.Type == ReadingTypeRSSI || r.Type == ReadingTypeRangingAndRSSI
}

func validateReadingSource(sourceMac string) error {
	if sourceMac == "" {
		return fmt.Errorf("%w: reading source mac address is empty", ErrInvalidArgument)
	}
	return nil
}

func validateDistance(distance float64) error {
	if distance < 0 {
		return fmt.Errorf("%w: distance must not be negative, got %f", ErrInvalidArgument, distance)
	}
	return nil
}
