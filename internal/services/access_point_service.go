package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gps-no-locate/internal/database/postgres/repositories"
	"gps-no-locate/internal/models"
)

type AccessPointService struct {
	accessPointRepository *repositories.AccessPointRepository
	zoneRepository        *repositories.ZoneRepository
	logger                zerolog.Logger
}

func NewAccessPointService(
	accessPointRepository *repositories.AccessPointRepository,
	zoneRepository *repositories.ZoneRepository,
	logger zerolog.Logger,
) *AccessPointService {
	return &AccessPointService{
		accessPointRepository: accessPointRepository,
		zoneRepository:        zoneRepository,
		logger:                logger,
	}
}

// RegisterOrUpdate upserts a surveyed access point from its registration
// payload.
func (s *AccessPointService) RegisterOrUpdate(ctx context.Context, dto *models.AccessPointDto) error {
	if dto == nil || dto.MacAddress == "" {
		return fmt.Errorf("access point registration needs a mac address")
	}

	accessPoint := dto.ToAccessPoint()

	if dto.Zone != "" {
		zone, err := s.zoneRepository.FindOrCreateByName(ctx, dto.Zone)
		if err != nil {
			return fmt.Errorf("could not resolve zone %s: %w", dto.Zone, err)
		}
		accessPoint.ZoneID = &zone.ID
	}

	if err := s.accessPointRepository.CreateOrUpdate(ctx, accessPoint); err != nil {
		return fmt.Errorf("could not persist access point %s: %w", dto.MacAddress, err)
	}

	s.logger.Debug().
		Str("mac_address", dto.MacAddress).
		Float64("x", dto.PositionX).
		Float64("y", dto.PositionY).
		Msg("Access point upserted")

	return nil
}

func (s *AccessPointService) GetAll(ctx context.Context) ([]*models.AccessPoint, error) {
	return s.accessPointRepository.GetAll(ctx)
}
