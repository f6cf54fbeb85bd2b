package models

import (
	"time"

	"gorm.io/gorm"
)

// Device is a mobile receiver whose position gets estimated.
type Device struct {
	gorm.Model
	MacAddress string    `gorm:"uniqueIndex;not null" json:"mac_address"`
	Name       string    `json:"name"`
	ZoneID     *uint     `json:"zone_id,omitempty"`
	Zone       *Zone     `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	LastSeen   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
}
