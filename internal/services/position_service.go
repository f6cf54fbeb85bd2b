package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gps-no-locate/internal/config"
	"gps-no-locate/internal/database/influx"
	"gps-no-locate/internal/database/postgres/repositories"
	"gps-no-locate/internal/models"
	"gps-no-locate/internal/mq"
	"gps-no-locate/internal/positioning"
	"gps-no-locate/internal/positioning/estimator"
	"gps-no-locate/internal/positioning/lateration"
	"gps-no-locate/internal/positioning/robust"
)

// MethodLinear selects the plain least-squares estimator instead of a
// robust one.
const MethodLinear = "LINEAR"

type positionEstimator interface {
	Estimate() (*positioning.Estimate, error)
}

// PositionService turns incoming fingerprints into estimated positions and
// fans the results out to InfluxDB and MQTT.
type PositionService struct {
	accessPointRepository *repositories.AccessPointRepository
	deviceRepository      *repositories.DeviceRepository
	positionWriter        *influx.PositionWriter
	readingWriter         *influx.ReadingWriter
	mqttClient            *mq.Client
	topicManager          *mq.TopicManager
	estimatorConfig       config.EstimatorConfig
	logger                zerolog.Logger
}

func NewPositionService(
	accessPointRepository *repositories.AccessPointRepository,
	deviceRepository *repositories.DeviceRepository,
	positionWriter *influx.PositionWriter,
	readingWriter *influx.ReadingWriter,
	mqttClient *mq.Client,
	topicManager *mq.TopicManager,
	estimatorConfig config.EstimatorConfig,
	logger zerolog.Logger,
) *PositionService {
	return &PositionService{
		accessPointRepository: accessPointRepository,
		deviceRepository:      deviceRepository,
		positionWriter:        positionWriter,
		readingWriter:         readingWriter,
		mqttClient:            mqttClient,
		topicManager:          topicManager,
		estimatorConfig:       estimatorConfig,
		logger:                logger,
	}
}

// ProcessFingerprint estimates the device position from one fingerprint.
// Raw readings are persisted even when the estimation itself fails.
func (s *PositionService) ProcessFingerprint(ctx context.Context, deviceMac string, message *models.FingerprintMessage) (*positioning.Estimate, error) {
	if _, err := s.deviceRepository.EnsureExists(ctx, deviceMac); err != nil {
		return nil, fmt.Errorf("could not ensure device %s: %w", deviceMac, err)
	}

	if err := s.readingWriter.WriteFingerprint(ctx, deviceMac, message); err != nil {
		s.logger.Error().Err(err).
			Str("device_mac", deviceMac).
			Msg("error writing raw readings to InfluxDB")
	}

	fingerprint, err := message.ToFingerprint()
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint: %w", err)
	}

	sources, qualityScores, err := s.resolveSources(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	positionEstimator, err := s.buildEstimator(sources, fingerprint, qualityScores)
	if err != nil {
		return nil, fmt.Errorf("could not build estimator: %w", err)
	}

	estimate, err := positionEstimator.Estimate()
	if err != nil {
		return nil, fmt.Errorf("estimation failed: %w", err)
	}

	record := models.NewPositionRecord(uuid.NewString(), deviceMac, s.estimatorConfig.Method, estimate)

	if err := s.positionWriter.WritePosition(ctx, record); err != nil {
		s.logger.Error().Err(err).
			Str("device_mac", deviceMac).
			Msg("error writing position to InfluxDB")
	}

	if err := s.mqttClient.PublishJSON(s.topicManager.GetPositionTopic(deviceMac), record); err != nil {
		s.logger.Error().Err(err).
			Str("device_mac", deviceMac).
			Msg("error publishing position")
	}

	if err := s.deviceRepository.UpdateLastSeen(ctx, deviceMac); err != nil {
		s.logger.Debug().
			Str("device_mac", deviceMac).
			Msg("could not update last seen for device")
	}

	return estimate, nil
}

// resolveSources looks up the access points referenced by the fingerprint
// and converts them into estimator sources with their quality scores.
func (s *PositionService) resolveSources(ctx context.Context, fingerprint *positioning.Fingerprint) ([]*positioning.RadioSource, []float64, error) {
	macs := fingerprint.SourceMacs()

	accessPoints, err := s.accessPointRepository.FindByMacAddresses(ctx, macs)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load access points: %w", err)
	}

	var (
		sources []*positioning.RadioSource
		scores  []float64
	)
	for _, accessPoint := range accessPoints {
		source, err := accessPoint.ToRadioSource(s.estimatorConfig.Dimension)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("mac_address", accessPoint.MacAddress).
				Msg("skipping access point")
			continue
		}
		sources = append(sources, source)
		scores = append(scores, accessPoint.QualityScore)

		if err := s.accessPointRepository.UpdateLastSeen(ctx, accessPoint.MacAddress); err != nil {
			s.logger.Debug().
				Str("mac_address", accessPoint.MacAddress).
				Msg("could not update last seen for access point")
		}
	}

	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("%w: no known access points in fingerprint", positioning.ErrNotReady)
	}

	return sources, scores, nil
}

func (s *PositionService) buildEstimator(sources []*positioning.RadioSource, fingerprint *positioning.Fingerprint, qualityScores []float64) (positionEstimator, error) {
	cfg := s.estimatorConfig

	formulation, err := lateration.ParseFormulation(cfg.Formulation)
	if err != nil {
		return nil, err
	}

	if strings.ToUpper(cfg.Method) == MethodLinear {
		var linear *estimator.Linear
		if cfg.Dimension == 3 {
			linear, err = estimator.NewLinear3D(sources, fingerprint)
		} else {
			linear, err = estimator.NewLinear2D(sources, fingerprint)
		}
		if err != nil {
			return nil, err
		}
		if err := linear.SetFormulation(formulation); err != nil {
			return nil, err
		}
		if err := linear.SetWeighted(cfg.Weighted); err != nil {
			return nil, err
		}
		return linear, nil
	}

	method, err := robust.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}

	var robustEstimator *estimator.Robust
	if cfg.Dimension == 3 {
		robustEstimator, err = estimator.NewRobust3D(method, sources, fingerprint)
	} else {
		robustEstimator, err = estimator.NewRobust2D(method, sources, fingerprint)
	}
	if err != nil {
		return nil, err
	}

	if err := robustEstimator.SetFormulation(formulation); err != nil {
		return nil, err
	}
	if err := robustEstimator.SetWeighted(cfg.Weighted); err != nil {
		return nil, err
	}
	if err := robustEstimator.SetThreshold(cfg.ResidualThreshold); err != nil {
		return nil, err
	}
	if err := robustEstimator.SetConfidence(cfg.Confidence); err != nil {
		return nil, err
	}
	if err := robustEstimator.SetMaxIterations(cfg.MaxIterations); err != nil {
		return nil, err
	}
	if err := robustEstimator.SetRefineResult(cfg.RefineResult); err != nil {
		return nil, err
	}
	if method.UsesQualityScores() {
		if err := robustEstimator.SetQualityScores(qualityScores); err != nil {
			return nil, err
		}
	}

	return robustEstimator, nil
}
