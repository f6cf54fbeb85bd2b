package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gps-no-locate/internal/models"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) FindOrCreateByName(ctx context.Context, name string) (*models.Zone, error) {
	var zone models.Zone
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&zone).Error
	if err == nil {
		return &zone, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	zone = models.Zone{Name: name}
	if err := r.db.WithContext(ctx).Create(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *ZoneRepository) GetAll(ctx context.Context) ([]*models.Zone, error) {
	var zones []*models.Zone
	err := r.db.WithContext(ctx).Preload("AccessPoints").Find(&zones).Error
	return zones, err
}
