package handlers

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"gps-no-locate/internal/models"
	"gps-no-locate/internal/mq"
	"gps-no-locate/internal/services"
)

type FingerprintHandler struct {
	positionService *services.PositionService
	topicManager    *mq.TopicManager
	logger          zerolog.Logger
}

func NewFingerprintHandler(
	topicManager *mq.TopicManager,
	positionService *services.PositionService,
	logger zerolog.Logger,
) *FingerprintHandler {
	return &FingerprintHandler{
		positionService: positionService,
		topicManager:    topicManager,
		logger:          logger,
	}
}

func (h *FingerprintHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := msg.Topic()
	payload := msg.Payload()

	deviceMac, err := h.topicManager.ExtractDeviceMac(topic)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract device MAC from topic")
		return
	}

	var message models.FingerprintMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("payload", string(payload)).
			Msg("Could not parse fingerprint message")
		return
	}

	estimate, err := h.positionService.ProcessFingerprint(ctx, deviceMac, &message)
	if err != nil {
		h.logger.Error().Err(err).
			Str("device_mac", deviceMac).
			Int("readings", len(message.Readings)).
			Msg("Error processing fingerprint")
		return
	}

	h.logger.Info().
		Str("device_mac", deviceMac).
		Int("readings", len(message.Readings)).
		Str("position", estimate.Position.String()).
		Msg("Fingerprint processed")
}
