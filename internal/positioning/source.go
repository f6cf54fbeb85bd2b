package positioning

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultPathLossExponent is the free-space propagation exponent used when a
// source does not carry a calibrated one.
const DefaultPathLossExponent = 2.0

// RadioSource is a located WiFi access point that readings can refer to.
type RadioSource struct {
	MacAddress string
	Position   Point

	// TransmittedPower is the equivalent transmitted power in dBm at the
	// reference distance. Sources without it cannot serve RSSI readings.
	TransmittedPower *float64

	PathLossExponent float64

	// PositionCovariance optionally describes the uncertainty of the source
	// position itself, as reported by whoever surveyed the access point.
	PositionCovariance *mat.SymDense
}

// NewRadioSource builds a located source with the default path-loss exponent.
func NewRadioSource(macAddress string, position Point) (*RadioSource, error) {
	if macAddress == "" {
		return nil, fmt.Errorf("%w: source mac address is empty", ErrInvalidArgument)
	}
	d := position.Dimension()
	if d != 2 && d != 3 {
		return nil, fmt.Errorf("%w: source position must be 2D or 3D, got %d components", ErrInvalidArgument, d)
	}
	return &RadioSource{
		MacAddress:       macAddress,
		Position:         position,
		PathLossExponent: DefaultPathLossExponent,
	}, nil
}

// NewRadioSourceWithPower builds a source able to serve RSSI readings.
func NewRadioSourceWithPower(macAddress string, position Point, txPower, pathLossExponent float64) (*RadioSource, error) {
	source, err := NewRadioSource(macAddress, position)
	if err != nil {
		return nil, err
	}
	if pathLossExponent <= 0 {
		return nil, fmt.Errorf("%w: path loss exponent must be positive, got %f", ErrInvalidArgument, pathLossExponent)
	}
	source.TransmittedPower = &txPower
	source.PathLossExponent = pathLossExponent
	return source, nil
}

func (s *RadioSource) HasTransmittedPower() bool {
	return s.TransmittedPower != nil
}

func (s *RadioSource) Dimension() int {
	return s.Position.Dimension()
}
