package models

import "gorm.io/gorm"

// Zone groups access points and devices belonging to one deployment area,
// typically a floor or a hall.
type Zone struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`

	AccessPoints []AccessPoint `gorm:"foreignKey:ZoneID" json:"access_points,omitempty"`
	Devices      []Device      `gorm:"foreignKey:ZoneID" json:"devices,omitempty"`
}
