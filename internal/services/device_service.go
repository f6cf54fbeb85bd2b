package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gps-no-locate/internal/config"
	"gps-no-locate/internal/database/postgres/repositories"
	"gps-no-locate/internal/models"
)

type DeviceService struct {
	deviceRepository *repositories.DeviceRepository
	serviceConfig    config.ServiceConfig
	logger           zerolog.Logger
}

func NewDeviceService(
	deviceRepository *repositories.DeviceRepository,
	serviceConfig config.ServiceConfig,
	logger zerolog.Logger,
) *DeviceService {
	return &DeviceService{
		deviceRepository: deviceRepository,
		serviceConfig:    serviceConfig,
		logger:           logger,
	}
}

// StartActivityMonitor periodically marks devices inactive that have not
// reported a fingerprint within the timeout. Runs until ctx is cancelled.
func (s *DeviceService) StartActivityMonitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.serviceConfig.DeviceUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.deviceRepository.MarkInactiveDevices(ctx, s.serviceConfig.DeviceTimeoutDuration); err != nil {
					s.logger.Error().Err(err).Msg("could not mark inactive devices")
				}
			case <-ctx.Done():
				s.logger.Info().Msg("device activity monitor stopping")
				return
			}
		}
	}()
}

func (s *DeviceService) GetAllDevices(ctx context.Context) ([]*models.Device, error) {
	return s.deviceRepository.GetAllDevices(ctx)
}
