package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"gps-no-locate/internal/models"
)

type ReadingWriter struct {
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewReadingWriter(writeAPI api.WriteAPI, logger zerolog.Logger) *ReadingWriter {
	return &ReadingWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

// WriteFingerprint stores the raw readings of one fingerprint, keeping the
// measurement history even when an estimation fails.
func (w *ReadingWriter) WriteFingerprint(ctx context.Context, deviceMac string, message *models.FingerprintMessage) error {
	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	for _, reading := range message.Readings {
		tags := map[string]string{
			"device_mac": deviceMac,
			"source_mac": reading.SourceMac,
			"type":       reading.Type,
		}

		fields := map[string]interface{}{}
		if reading.Distance != nil {
			fields["distance"] = *reading.Distance
		}
		if reading.DistanceStdDev != nil {
			fields["distance_std_dev"] = *reading.DistanceStdDev
		}
		if reading.Rssi != nil {
			fields["rssi"] = *reading.Rssi
		}
		if reading.RssiStdDev != nil {
			fields["rssi_std_dev"] = *reading.RssiStdDev
		}
		if len(fields) == 0 {
			continue
		}

		point := influxdb2.NewPoint("reading", tags, fields, timestamp)
		w.writeAPI.WritePoint(point)
	}

	w.logger.Debug().
		Str("device_mac", deviceMac).
		Int("readings", len(message.Readings)).
		Msg("Added fingerprint readings to InfluxDB")

	return nil
}
