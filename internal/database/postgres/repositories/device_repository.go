package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gps-no-locate/internal/models"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// EnsureExists creates the device on first contact.
func (r *DeviceRepository) EnsureExists(ctx context.Context, macAddress string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("mac_address = ?", macAddress).First(&device).Error
	if err == nil {
		return &device, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	device = models.Device{
		MacAddress: macAddress,
		LastSeen:   time.Now(),
		IsActive:   true,
	}
	if err := r.db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) FindByMacAddress(ctx context.Context, macAddress string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Preload("Zone").Where("mac_address = ?", macAddress).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) UpdateLastSeen(ctx context.Context, macAddress string) error {
	return r.db.WithContext(ctx).Model(&models.Device{}).
		Where("mac_address = ?", macAddress).
		Updates(map[string]interface{}{"last_seen": time.Now(), "is_active": true}).Error
}

func (r *DeviceRepository) MarkInactiveDevices(ctx context.Context, timeout time.Duration) error {
	cutoff := time.Now().Add(-timeout)
	return r.db.WithContext(ctx).Model(&models.Device{}).
		Where("last_seen < ? AND is_active = ?", cutoff, true).
		Update("is_active", false).Error
}

func (r *DeviceRepository) GetAllDevices(ctx context.Context) ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.WithContext(ctx).Find(&devices).Error
	return devices, err
}
