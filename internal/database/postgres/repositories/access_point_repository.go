package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gps-no-locate/internal/models"
)

type AccessPointRepository struct {
	db *gorm.DB
}

func NewAccessPointRepository(db *gorm.DB) *AccessPointRepository {
	return &AccessPointRepository{db: db}
}

func (r *AccessPointRepository) CreateOrUpdate(ctx context.Context, accessPoint *models.AccessPoint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AccessPoint
		result := tx.Where("mac_address = ?", accessPoint.MacAddress).First(&existing)

		if result.Error == nil {
			updateMap := map[string]interface{}{
				"name":               accessPoint.Name,
				"zone_id":            accessPoint.ZoneID,
				"position_x":         accessPoint.PositionX,
				"position_y":         accessPoint.PositionY,
				"position_z":         accessPoint.PositionZ,
				"transmitted_power":  accessPoint.TransmittedPower,
				"path_loss_exponent": accessPoint.PathLossExponent,
				"quality_score":      accessPoint.QualityScore,
			}

			return tx.Model(&models.AccessPoint{}).
				Where("mac_address = ?", accessPoint.MacAddress).
				Updates(updateMap).Error

		} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(accessPoint).Error

		} else {
			return result.Error
		}
	})
}

func (r *AccessPointRepository) FindByMacAddress(ctx context.Context, macAddress string) (*models.AccessPoint, error) {
	var accessPoint models.AccessPoint
	err := r.db.WithContext(ctx).Preload("Zone").Where("mac_address = ?", macAddress).First(&accessPoint).Error
	if err != nil {
		return nil, err
	}
	return &accessPoint, nil
}

// FindByMacAddresses returns the known access points among the given MACs.
func (r *AccessPointRepository) FindByMacAddresses(ctx context.Context, macAddresses []string) ([]*models.AccessPoint, error) {
	var accessPoints []*models.AccessPoint
	err := r.db.WithContext(ctx).Where("mac_address IN ?", macAddresses).Find(&accessPoints).Error
	return accessPoints, err
}

func (r *AccessPointRepository) UpdateLastSeen(ctx context.Context, macAddress string) error {
	return r.db.WithContext(ctx).Model(&models.AccessPoint{}).
		Where("mac_address = ?", macAddress).
		Update("last_seen", time.Now()).Error
}

func (r *AccessPointRepository) GetAll(ctx context.Context) ([]*models.AccessPoint, error) {
	var accessPoints []*models.AccessPoint
	err := r.db.WithContext(ctx).Find(&accessPoints).Error
	return accessPoints, err
}
