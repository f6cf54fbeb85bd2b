package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"gps-no-locate/internal/models"
)

type PositionWriter struct {
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewPositionWriter(writeAPI api.WriteAPI, logger zerolog.Logger) *PositionWriter {
	return &PositionWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (w *PositionWriter) WritePosition(ctx context.Context, record *models.PositionRecord) error {
	point := influxdb2.NewPoint(
		"position",
		record.ToInfluxTags(),
		record.ToInfluxFields(),
		record.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	w.logger.Debug().
		Str("device_mac", record.DeviceMac).
		Float64("x", record.X).
		Float64("y", record.Y).
		Float64("rms", record.RMS).
		Msg("Added position to InfluxDB")

	return nil
}
