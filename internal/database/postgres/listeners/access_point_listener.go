package listeners

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gps-no-locate/internal/mq"
)

// AccessPointTableListener republishes access point changes over MQTT so
// receivers can refresh their anchor maps without polling.
type AccessPointTableListener struct {
	*BaseTableListener
	logger       zerolog.Logger
	mqttClient   *mq.Client
	topicManager *mq.TopicManager
}

func NewAccessPointTableListener(
	logger zerolog.Logger,
	mqttClient *mq.Client,
	topicManager *mq.TopicManager,
) *AccessPointTableListener {
	return &AccessPointTableListener{
		BaseTableListener: NewBaseTableListener("access_points"),
		logger:            logger,
		mqttClient:        mqttClient,
		topicManager:      topicManager,
	}
}

func (l *AccessPointTableListener) HandleChange(ctx context.Context, event *TableChangeEvent) error {
	l.logger.Info().
		Str("operation", string(event.Operation)).
		Str("table", event.Table).
		Time("timestamp", event.Timestamp).
		Msg("Access point table change detected")

	switch event.Operation {
	case InsertOperation:
		return l.publishEvent("created", map[string]interface{}{
			"event":        "access_point_created",
			"access_point": event.NewData,
			"timestamp":    event.Timestamp,
		})
	case UpdateOperation:
		return l.publishEvent("updated", map[string]interface{}{
			"event":     "access_point_updated",
			"old_data":  event.OldData,
			"new_data":  event.NewData,
			"timestamp": event.Timestamp,
		})
	case DeleteOperation:
		return l.publishEvent("deleted", map[string]interface{}{
			"event":        "access_point_deleted",
			"deleted_data": event.OldData,
			"timestamp":    event.Timestamp,
		})
	default:
		return fmt.Errorf("unknown operation: %s", event.Operation)
	}
}

func (l *AccessPointTableListener) publishEvent(kind string, payload map[string]interface{}) error {
	topic := fmt.Sprintf("%s/events/access-points/%s", l.topicManager.GetBaseTopic(), kind)
	if err := l.mqttClient.PublishJSON(topic, payload); err != nil {
		l.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish access point event")
	}
	return nil
}
