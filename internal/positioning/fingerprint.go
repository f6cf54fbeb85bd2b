package positioning

import (
	"fmt"
	"time"
)

// Fingerprint is the ordered set of readings collected at one observation
// point, usually one scan cycle of a receiver.
type Fingerprint struct {
	Readings  []*Reading
	Timestamp time.Time
}

func NewFingerprint(readings []*Reading) (*Fingerprint, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: fingerprint needs at least one reading", ErrInvalidArgument)
	}
	for i, reading := range readings {
		if reading == nil {
			return nil, fmt.Errorf("%w: fingerprint reading %d is nil", ErrInvalidArgument, i)
		}
	}
	return &Fingerprint{
		Readings:  readings,
		Timestamp: time.Now(),
	}, nil
}

func (f *Fingerprint) Size() int {
	return len(f.Readings)
}

// ReadingsFrom returns the readings referring to the given source.
func (f *Fingerprint) ReadingsFrom(sourceMac string) []*Reading {
	var out []*Reading
	for _, reading := range f.Readings {
		if reading.SourceMac == sourceMac {
			out = append(out, reading)
		}
	}
	return out
}

func (f *Fingerprint) SourceMacs() []string {
	seen := make(map[string]bool)
	var macs []string
	for _, reading := range f.Readings {
		if !seen[reading.SourceMac] {
			seen[reading.SourceMac] = true
			macs = append(macs, reading.SourceMac)
		}
	}
	return macs
}
