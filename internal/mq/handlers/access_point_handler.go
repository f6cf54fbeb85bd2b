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

type AccessPointHandler struct {
	accessPointService *services.AccessPointService
	topicManager       *mq.TopicManager
	logger             zerolog.Logger
}

func NewAccessPointHandler(
	topicManager *mq.TopicManager,
	accessPointService *services.AccessPointService,
	logger zerolog.Logger,
) *AccessPointHandler {
	return &AccessPointHandler{
		accessPointService: accessPointService,
		topicManager:       topicManager,
		logger:             logger,
	}
}

func (h *AccessPointHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := msg.Topic()
	payload := msg.Payload()

	macAddress, err := h.topicManager.ExtractAccessPointMac(topic)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract access point MAC from topic")
		return
	}

	var dto models.AccessPointDto
	if err := json.Unmarshal(payload, &dto); err != nil {
		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("payload", string(payload)).
			Msg("Could not parse access point message")
		return
	}
	if dto.MacAddress == "" {
		dto.MacAddress = macAddress
	}

	if err := h.accessPointService.RegisterOrUpdate(ctx, &dto); err != nil {
		h.logger.Error().Err(err).
			Str("mac_address", dto.MacAddress).
			Msg("Error registering access point")
		return
	}

	h.logger.Info().
		Str("mac_address", dto.MacAddress).
		Msg("Access point registered")
}
