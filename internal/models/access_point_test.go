package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gps-no-locate/internal/positioning"
)

func TestAccessPointPrepare(t *testing.T) {
	ap := &AccessPoint{MacAddress: "aa:bb:cc:dd:ee:ff"}
	ap.Prepare()

	assert.Equal(t, "GPS:No AP-DDEEFF", ap.Name)
	assert.Equal(t, positioning.DefaultPathLossExponent, ap.PathLossExponent)
	assert.Equal(t, 1.0, ap.QualityScore)

	// Existing names are kept.
	named := &AccessPoint{MacAddress: "aa:bb:cc:dd:ee:ff", Name: "lobby-west"}
	named.Prepare()
	assert.Equal(t, "lobby-west", named.Name)
}

func TestAccessPointToRadioSource(t *testing.T) {
	ap := &AccessPoint{
		MacAddress:       "aa:bb:cc:dd:ee:ff",
		PositionX:        3,
		PositionY:        4,
		TransmittedPower: floatPtr(-42),
		PathLossExponent: 2.3,
	}

	source, err := ap.ToRadioSource(2)
	require.NoError(t, err)
	assert.Equal(t, positioning.NewPoint2D(3, 4), source.Position)
	assert.True(t, source.HasTransmittedPower())
	assert.Equal(t, -42.0, *source.TransmittedPower)
	assert.Equal(t, 2.3, source.PathLossExponent)

	// No height surveyed, so a 3D conversion fails.
	_, err = ap.ToRadioSource(3)
	assert.Error(t, err)

	ap.PositionZ = floatPtr(2.5)
	source, err = ap.ToRadioSource(3)
	require.NoError(t, err)
	assert.Equal(t, positioning.NewPoint3D(3, 4, 2.5), source.Position)

	_, err = ap.ToRadioSource(4)
	assert.Error(t, err)
}

func TestAccessPointDtoRoundTrip(t *testing.T) {
	dto := &AccessPointDto{
		MacAddress:       "aa:bb:cc:dd:ee:ff",
		PositionX:        1.5,
		PositionY:        2.5,
		PositionZ:        floatPtr(3.0),
		TransmittedPower: floatPtr(-40),
		PathLossExponent: 2.1,
		QualityScore:     0.8,
	}

	ap := dto.ToAccessPoint()
	assert.Equal(t, "GPS:No AP-DDEEFF", ap.Name)
	assert.Equal(t, 2.1, ap.PathLossExponent)
	assert.Equal(t, 0.8, ap.QualityScore)

	back := ap.ToDto()
	assert.Equal(t, dto.MacAddress, back.MacAddress)
	assert.Equal(t, dto.PositionX, back.PositionX)
	require.NotNil(t, back.PositionZ)
	assert.Equal(t, *dto.PositionZ, *back.PositionZ)
}
