package models

import (
	"time"

	"gps-no-locate/internal/positioning"
)

// PositionRecord is one estimated device position, shaped for the Influx
// sink and the MQTT position topic.
type PositionRecord struct {
	JobID     string   `json:"job_id"`
	DeviceMac string   `json:"device_mac"`
	Method    string   `json:"method"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         *float64 `json:"z,omitempty"`

	RMS          float64 `json:"rms"`
	Inliers      int     `json:"inliers"`
	Measurements int     `json:"measurements"`

	Timestamp time.Time `json:"timestamp"`
}

func NewPositionRecord(jobID, deviceMac, method string, estimate *positioning.Estimate) *PositionRecord {
	record := &PositionRecord{
		JobID:        jobID,
		DeviceMac:    deviceMac,
		Method:       method,
		X:            estimate.Position.X(),
		Y:            estimate.Position.Y(),
		RMS:          estimate.RMS,
		Inliers:      estimate.Inliers,
		Measurements: estimate.Measurements,
		Timestamp:    estimate.EstimatedAt,
	}
	if estimate.Position.Dimension() == 3 {
		z := estimate.Position.Z()
		record.Z = &z
	}
	return record
}

func (p *PositionRecord) ToInfluxTags() map[string]string {
	return map[string]string{
		"device_mac": p.DeviceMac,
		"method":     p.Method,
	}
}

func (p *PositionRecord) ToInfluxFields() map[string]interface{} {
	fields := map[string]interface{}{
		"x":            p.X,
		"y":            p.Y,
		"rms":          p.RMS,
		"inliers":      p.Inliers,
		"measurements": p.Measurements,
		"job_id":       p.JobID,
	}
	if p.Z != nil {
		fields["z"] = *p.Z
	}
	return fields
}
