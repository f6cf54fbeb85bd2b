package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.MQTT.Host)
	assert.Equal(t, 1883, config.MQTT.Port)
	assert.Equal(t, "gpsno/positioning", config.MQTT.BaseTopic)

	assert.Equal(t, "gps_no", config.Postgres.Database)
	assert.Contains(t, config.Postgres.Dsn, "dbname=gps_no")
	assert.Contains(t, config.Postgres.Dsn, "sslmode=disable")

	assert.Equal(t, 30*time.Second, config.Service.DeviceUpdateInterval)
	assert.Equal(t, 5*time.Minute, config.Service.DeviceTimeoutDuration)

	assert.Equal(t, 2, config.Estimator.Dimension)
	assert.Equal(t, "RANSAC", config.Estimator.Method)
	assert.Equal(t, "INHOMOGENEOUS", config.Estimator.Formulation)
	assert.True(t, config.Estimator.Weighted)
	assert.Equal(t, 1.0, config.Estimator.ResidualThreshold)
	assert.Equal(t, 0.99, config.Estimator.Confidence)
	assert.Equal(t, 5000, config.Estimator.MaxIterations)
	assert.True(t, config.Estimator.RefineResult)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESTIMATOR_DIMENSION", "3")
	t.Setenv("ESTIMATOR_METHOD", "PROSAC")
	t.Setenv("ESTIMATOR_RESIDUAL_THRESHOLD", "0.75")
	t.Setenv("ESTIMATOR_WEIGHTED", "false")
	t.Setenv("MQTT_BASE_TOPIC", "campus/tracking/")
	t.Setenv("DEVICE_TIMEOUT_DURATION", "90s")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, config.Estimator.Dimension)
	assert.Equal(t, "PROSAC", config.Estimator.Method)
	assert.Equal(t, 0.75, config.Estimator.ResidualThreshold)
	assert.False(t, config.Estimator.Weighted)

	// Trailing slash on the base topic is stripped.
	assert.Equal(t, "campus/tracking", config.MQTT.BaseTopic)
	assert.Equal(t, 90*time.Second, config.Service.DeviceTimeoutDuration)
}

func TestLoadValidation(t *testing.T) {
	t.Run("dimension", func(t *testing.T) {
		t.Setenv("ESTIMATOR_DIMENSION", "4")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("threshold", func(t *testing.T) {
		t.Setenv("ESTIMATOR_RESIDUAL_THRESHOLD", "-1")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("confidence", func(t *testing.T) {
		t.Setenv("ESTIMATOR_CONFIDENCE", "1.5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("iterations", func(t *testing.T) {
		t.Setenv("ESTIMATOR_MAX_ITERATIONS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
