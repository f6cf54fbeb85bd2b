package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gps-no-locate/internal/positioning"
)

// AccessPoint is a surveyed WiFi access point usable as a lateration anchor.
// PositionZ is nil for installations surveyed in 2D only.
type AccessPoint struct {
	gorm.Model
	MacAddress string `gorm:"uniqueIndex;not null" json:"mac_address"`
	Name       string `gorm:"not null" json:"name"`
	ZoneID     *uint  `json:"zone_id,omitempty"`
	Zone       *Zone  `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`

	PositionX float64  `json:"position_x"`
	PositionY float64  `json:"position_y"`
	PositionZ *float64 `json:"position_z,omitempty"`

	TransmittedPower *float64 `json:"transmitted_power,omitempty"`
	PathLossExponent float64  `gorm:"default:2" json:"path_loss_exponent"`

	// QualityScore weights this access point in the score-guided robust
	// methods. Defaults to 1, raised for well-calibrated installations.
	QualityScore float64 `gorm:"default:1" json:"quality_score"`

	LastSeen time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

func (ap *AccessPoint) Prepare() {
	if ap.Name == "" && len(ap.MacAddress) == 17 {
		identifier := strings.ToUpper(fmt.Sprintf("%s%s%s",
			ap.MacAddress[9:11], ap.MacAddress[12:14], ap.MacAddress[15:17]))
		ap.Name = fmt.Sprintf("GPS:No AP-%s", identifier)
	}
	if ap.PathLossExponent == 0 {
		ap.PathLossExponent = positioning.DefaultPathLossExponent
	}
	if ap.QualityScore == 0 {
		ap.QualityScore = 1
	}
}

// ToRadioSource converts the row into the estimator's source type for the
// requested dimension. A 3D request against a 2D-surveyed access point is an
// error.
func (ap *AccessPoint) ToRadioSource(dim int) (*positioning.RadioSource, error) {
	var position positioning.Point
	switch dim {
	case 2:
		position = positioning.NewPoint2D(ap.PositionX, ap.PositionY)
	case 3:
		if ap.PositionZ == nil {
			return nil, fmt.Errorf("access point %s has no height for a 3D estimation", ap.MacAddress)
		}
		position = positioning.NewPoint3D(ap.PositionX, ap.PositionY, *ap.PositionZ)
	default:
		return nil, fmt.Errorf("unsupported dimension %d", dim)
	}

	if ap.TransmittedPower != nil {
		return positioning.NewRadioSourceWithPower(ap.MacAddress, position, *ap.TransmittedPower, ap.PathLossExponent)
	}
	return positioning.NewRadioSource(ap.MacAddress, position)
}

func (ap *AccessPoint) UpdateFromDto(dto *AccessPointDto) {
	if dto == nil {
		return
	}
	ap.MacAddress = dto.MacAddress
	ap.Name = dto.Name
	ap.PositionX = dto.PositionX
	ap.PositionY = dto.PositionY
	ap.PositionZ = dto.PositionZ
	ap.TransmittedPower = dto.TransmittedPower
	if dto.PathLossExponent > 0 {
		ap.PathLossExponent = dto.PathLossExponent
	}
	if dto.QualityScore > 0 {
		ap.QualityScore = dto.QualityScore
	}
}

func (ap *AccessPoint) ToDto() AccessPointDto {
	return AccessPointDto{
		MacAddress:       ap.MacAddress,
		Name:             ap.Name,
		PositionX:        ap.PositionX,
		PositionY:        ap.PositionY,
		PositionZ:        ap.PositionZ,
		TransmittedPower: ap.TransmittedPower,
		PathLossExponent: ap.PathLossExponent,
		QualityScore:     ap.QualityScore,
	}
}

type AccessPointDto struct {
	MacAddress       string   `json:"mac_address"`
	Name             string   `json:"name"`
	Zone             string   `json:"zone,omitempty"`
	PositionX        float64  `json:"position_x"`
	PositionY        float64  `json:"position_y"`
	PositionZ        *float64 `json:"position_z,omitempty"`
	TransmittedPower *float64 `json:"transmitted_power,omitempty"`
	PathLossExponent float64  `json:"path_loss_exponent,omitempty"`
	QualityScore     float64  `json:"quality_score,omitempty"`
}

func (dto *AccessPointDto) ToAccessPoint() *AccessPoint {
	ap := &AccessPoint{}
	ap.UpdateFromDto(dto)
	ap.Prepare()
	return ap
}
