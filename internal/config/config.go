package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MQTT      MQTTConfig      `json:"mqtt"`
	Postgres  PostgresConfig  `json:"postgres"`
	InfluxDB  InfluxConfig    `json:"influxdb"`
	Logger    LoggerConfig    `json:"logger"`
	Service   ServiceConfig   `json:"service"`
	Estimator EstimatorConfig `json:"estimator"`
}

type MQTTConfig struct {
	Host                 string        `json:"host"`
	Port                 int           `json:"port"`
	Username             string        `json:"username"`
	Password             string        `json:"password"`
	ClientID             string        `json:"client_id"`
	BaseTopic            string        `json:"base_topic"`
	QoS                  byte          `json:"qos"`
	KeepAlive            int           `json:"keep_alive"`
	AutoReconnect        bool          `json:"auto_reconnect"`
	MaxReconnectInterval time.Duration `json:"max_reconnect_interval"`
	CleanSession         bool          `json:"clean_session"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Dsn      string `json:"dsn"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
	TimeZone string `json:"timezone"`
}

type InfluxConfig struct {
	URL           string `json:"url"`
	Token         string `json:"token"`
	Organization  string `json:"organization"`
	Bucket        string `json:"bucket"`
	BatchSize     int    `json:"batch_size"`
	FlushInterval int    `json:"flush_interval_seconds"`
}

type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type ServiceConfig struct {
	Name                  string        `json:"name"`
	Version               string        `json:"version"`
	DeviceUpdateInterval  time.Duration `json:"device_update_interval"`
	DeviceTimeoutDuration time.Duration `json:"device_timeout_duration"`
}

// EstimatorConfig selects how incoming fingerprints are turned into
// positions. Method is one of LINEAR, RANSAC, LMEDS, MSAC, PROSAC, PROMEDS.
type EstimatorConfig struct {
	Dimension         int     `json:"dimension"`
	Method            string  `json:"method"`
	Formulation       string  `json:"formulation"`
	Weighted          bool    `json:"weighted"`
	ResidualThreshold float64 `json:"residual_threshold"`
	Confidence        float64 `json:"confidence"`
	MaxIterations     int     `json:"max_iterations"`
	RefineResult      bool    `json:"refine_result"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		MQTT: MQTTConfig{
			Host:                 getEnv("MQTT_HOST", "localhost"),
			Port:                 getEnvAsInt("MQTT_PORT", 1883),
			Username:             getEnv("MQTT_USERNAME", ""),
			Password:             getEnv("MQTT_PASSWORD", ""),
			ClientID:             getEnv("MQTT_CLIENT_ID", "gps-no-locate"),
			BaseTopic:            getEnv("MQTT_BASE_TOPIC", "gpsno/positioning"),
			QoS:                  byte(getEnvAsInt("MQTT_QOS", 1)),
			KeepAlive:            getEnvAsInt("MQTT_KEEP_ALIVE", 60),
			AutoReconnect:        getEnvAsBool("MQTT_AUTO_RECONNECT", true),
			MaxReconnectInterval: getEnvAsDuration("MQTT_MAX_RECONNECT_INTERVAL", "10s"),
			CleanSession:         getEnvAsBool("MQTT_CLEAN_SESSION", true),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DATABASE", "gps_no"),
			SSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		InfluxDB: InfluxConfig{
			URL:           getEnv("INFLUXDB_URL", "http://localhost:8086"),
			Token:         getEnv("INFLUXDB_TOKEN", ""),
			Organization:  getEnv("INFLUXDB_ORG", "gps_no_locate"),
			Bucket:        getEnv("INFLUXDB_BUCKET", "positions"),
			BatchSize:     getEnvAsInt("INFLUXDB_BATCH_SIZE", 100),
			FlushInterval: getEnvAsInt("INFLUXDB_FLUSH_INTERVAL", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Service: ServiceConfig{
			Name:                  getEnv("SERVICE_NAME", "gps-no-locate"),
			Version:               getEnv("SERVICE_VERSION", "1.0.0"),
			DeviceUpdateInterval:  getEnvAsDuration("DEVICE_UPDATE_INTERVAL", "30s"),
			DeviceTimeoutDuration: getEnvAsDuration("DEVICE_TIMEOUT_DURATION", "5m"),
		},
		Estimator: EstimatorConfig{
			Dimension:         getEnvAsInt("ESTIMATOR_DIMENSION", 2),
			Method:            getEnv("ESTIMATOR_METHOD", "RANSAC"),
			Formulation:       getEnv("ESTIMATOR_FORMULATION", "INHOMOGENEOUS"),
			Weighted:          getEnvAsBool("ESTIMATOR_WEIGHTED", true),
			ResidualThreshold: getEnvAsFloat("ESTIMATOR_RESIDUAL_THRESHOLD", 1.0),
			Confidence:        getEnvAsFloat("ESTIMATOR_CONFIDENCE", 0.99),
			MaxIterations:     getEnvAsInt("ESTIMATOR_MAX_ITERATIONS", 5000),
			RefineResult:      getEnvAsBool("ESTIMATOR_REFINE_RESULT", true),
		},
	}

	baseTopic, found := strings.CutSuffix(config.MQTT.BaseTopic, "/")
	if found {
		config.MQTT.BaseTopic = baseTopic
	}

	config.Postgres.Dsn = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		config.Postgres.Host, config.Postgres.Port, config.Postgres.User, config.Postgres.Password,
		config.Postgres.Database,
		func() string {
			if config.Postgres.SSLMode == "false" || config.Postgres.SSLMode == "" {
				return "disable"
			}
			return config.Postgres.SSLMode
		}(),
		config.Postgres.TimeZone,
	)

	return config, config.validate()
}

func (c *Config) validate() error {
	if c.Estimator.Dimension != 2 && c.Estimator.Dimension != 3 {
		return fmt.Errorf("ESTIMATOR_DIMENSION has to be 2 or 3, got %d", c.Estimator.Dimension)
	}
	if c.Estimator.ResidualThreshold <= 0 {
		return fmt.Errorf("ESTIMATOR_RESIDUAL_THRESHOLD has to be positive")
	}
	if c.Estimator.Confidence <= 0 || c.Estimator.Confidence >= 1 {
		return fmt.Errorf("ESTIMATOR_CONFIDENCE has to be in (0, 1)")
	}
	if c.Estimator.MaxIterations < 1 {
		return fmt.Errorf("ESTIMATOR_MAX_ITERATIONS has to be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
