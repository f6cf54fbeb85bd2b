package models

import (
	"fmt"
	"time"

	"gps-no-locate/internal/positioning"
)

// ReadingPayload is one reading inside a fingerprint MQTT message.
type ReadingPayload struct {
	SourceMac      string   `json:"source_mac"`
	Type           string   `json:"type"`
	Distance       *float64 `json:"distance,omitempty"`
	DistanceStdDev *float64 `json:"distance_std_dev,omitempty"`
	Rssi           *float64 `json:"rssi,omitempty"`
	RssiStdDev     *float64 `json:"rssi_std_dev,omitempty"`
}

// FingerprintMessage is the payload a device publishes after one scan cycle.
type FingerprintMessage struct {
	Readings  []ReadingPayload `json:"readings"`
	Timestamp time.Time        `json:"timestamp"`
}

func (m *FingerprintMessage) Validate() error {
	if len(m.Readings) == 0 {
		return fmt.Errorf("fingerprint has no readings")
	}
	for i, r := range m.Readings {
		if r.SourceMac == "" {
			return fmt.Errorf("reading %d: source_mac is required", i)
		}
		switch positioning.ReadingType(r.Type) {
		case positioning.ReadingTypeRanging:
			if r.Distance == nil {
				return fmt.Errorf("reading %d: distance is required for %s", i, r.Type)
			}
		case positioning.ReadingTypeRSSI:
			if r.Rssi == nil {
				return fmt.Errorf("reading %d: rssi is required for %s", i, r.Type)
			}
		case positioning.ReadingTypeRangingAndRSSI:
			if r.Distance == nil || r.Rssi == nil {
				return fmt.Errorf("reading %d: distance and rssi are required for %s", i, r.Type)
			}
		default:
			return fmt.Errorf("reading %d: unknown type %q", i, r.Type)
		}
	}
	return nil
}

// ToFingerprint converts the wire payload into the estimator's fingerprint.
func (m *FingerprintMessage) ToFingerprint() (*positioning.Fingerprint, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	readings := make([]*positioning.Reading, 0, len(m.Readings))
	for i, payload := range m.Readings {
		var (
			reading *positioning.Reading
			err     error
		)
		switch positioning.ReadingType(payload.Type) {
		case positioning.ReadingTypeRanging:
			reading, err = positioning.NewRangingReading(payload.SourceMac, *payload.Distance)
		case positioning.ReadingTypeRSSI:
			reading, err = positioning.NewRSSIReading(payload.SourceMac, *payload.Rssi)
		case positioning.ReadingTypeRangingAndRSSI:
			reading, err = positioning.NewRangingAndRSSIReading(payload.SourceMac, *payload.Distance, *payload.Rssi)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}

		if payload.DistanceStdDev != nil {
			if _, err := reading.WithDistanceStdDev(*payload.DistanceStdDev); err != nil {
				return nil, fmt.Errorf("reading %d: %w", i, err)
			}
		}
		if payload.RssiStdDev != nil {
			if _, err := reading.WithRSSIStdDev(*payload.RssiStdDev); err != nil {
				return nil, fmt.Errorf("reading %d: %w", i, err)
			}
		}

		readings = append(readings, reading)
	}

	fingerprint, err := positioning.NewFingerprint(readings)
	if err != nil {
		return nil, err
	}
	if !m.Timestamp.IsZero() {
		fingerprint.Timestamp = m.Timestamp
	}
	return fingerprint, nil
}
