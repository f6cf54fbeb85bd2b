package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"gps-no-locate/internal/config"
	"gps-no-locate/internal/database/influx"
	"gps-no-locate/internal/database/postgres"
	"gps-no-locate/internal/database/postgres/listeners"
	"gps-no-locate/internal/database/postgres/repositories"
	"gps-no-locate/internal/logger"
	"gps-no-locate/internal/mq"
	"gps-no-locate/internal/mq/handlers"
	"gps-no-locate/internal/services"
)

type Application struct {
	config *config.Config

	postgresDB      *postgres.PostgresDB
	listenerManager *listeners.ListenerManager
	influxDB        *influx.InfluxDB

	accessPointRepository *repositories.AccessPointRepository
	deviceRepository      *repositories.DeviceRepository
	zoneRepository        *repositories.ZoneRepository

	positionWriter *influx.PositionWriter
	readingWriter  *influx.ReadingWriter

	positionService    *services.PositionService
	accessPointService *services.AccessPointService
	deviceService      *services.DeviceService

	mqttClient         *mq.Client
	topicManager       *mq.TopicManager
	fingerprintHandler *handlers.FingerprintHandler
	accessPointHandler *handlers.AccessPointHandler

	shutdownChan chan os.Signal
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

func main() {
	app := &Application{}

	if err := app.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

func (app *Application) initialize() error {
	var err error

	app.config, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger.NewLogger(app.config.Logger)
	log.Info().
		Str("component", "main").
		Str("version", app.config.Service.Version).
		Str("method", app.config.Estimator.Method).
		Int("dimension", app.config.Estimator.Dimension).
		Msg("Setting up positioning service...")

	app.ctx, app.cancelFunc = context.WithCancel(context.Background())
	app.shutdownChan = make(chan os.Signal, 1)
	signal.Notify(app.shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.initializeDatabases(); err != nil {
		return fmt.Errorf("error while initializing databases: %w", err)
	}

	if err := app.initializeMQTT(); err != nil {
		return fmt.Errorf("error while initializing MQTT: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return fmt.Errorf("error while initializing repositories: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return fmt.Errorf("error while initializing services: %w", err)
	}

	if err := app.setupTopicHandlers(); err != nil {
		return fmt.Errorf("error while setting up topic handlers: %w", err)
	}

	if err := app.setupTableListeners(); err != nil {
		return fmt.Errorf("error while setting up table listeners: %w", err)
	}

	log.Info().Msg("Successfully initialized application")
	return nil
}

func (app *Application) initializeDatabases() error {
	var err error

	app.postgresDB, err = postgres.NewConnection(app.config.Postgres)
	if err != nil {
		return fmt.Errorf("could not connect to PostgreSQL: %w", err)
	}

	app.influxDB, err = influx.NewConnection(&app.config.InfluxDB, logger.GetLogger("influxdb"))
	if err != nil {
		return fmt.Errorf("could not connect to InfluxDB: %w", err)
	}

	app.positionWriter = influx.NewPositionWriter(app.influxDB.GetWriteAPI(), logger.GetLogger("position-writer"))
	app.readingWriter = influx.NewReadingWriter(app.influxDB.GetWriteAPI(), logger.GetLogger("reading-writer"))

	log.Info().
		Str("component", "main").
		Str("host", app.config.Postgres.Host).
		Msg("Successfully initialized databases")
	return nil
}

func (app *Application) initializeMQTT() error {
	var err error

	app.topicManager = mq.NewTopicManager(app.config.MQTT.BaseTopic)

	app.mqttClient, err = mq.NewClient(&app.config.MQTT, logger.GetLogger("mq-client"))
	if err != nil {
		return fmt.Errorf("could not create MQTT client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()

	if err := app.mqttClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized MQTT client")

	return nil
}

func (app *Application) initializeRepositories() error {
	db := app.postgresDB.GetDB()

	app.accessPointRepository = repositories.NewAccessPointRepository(db)
	app.deviceRepository = repositories.NewDeviceRepository(db)
	app.zoneRepository = repositories.NewZoneRepository(db)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized repositories")
	return nil
}

func (app *Application) initializeServices() error {
	app.positionService = services.NewPositionService(
		app.accessPointRepository,
		app.deviceRepository,
		app.positionWriter,
		app.readingWriter,
		app.mqttClient,
		app.topicManager,
		app.config.Estimator,
		logger.GetLogger("position-service"),
	)

	app.accessPointService = services.NewAccessPointService(
		app.accessPointRepository,
		app.zoneRepository,
		logger.GetLogger("access-point-service"),
	)

	app.deviceService = services.NewDeviceService(
		app.deviceRepository,
		app.config.Service,
		logger.GetLogger("device-service"),
	)
	app.deviceService.StartActivityMonitor(app.ctx)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized services")
	return nil
}

func (app *Application) setupTopicHandlers() error {
	app.fingerprintHandler = handlers.NewFingerprintHandler(
		app.topicManager,
		app.positionService,
		logger.GetLogger("fingerprint-handler"),
	)

	if err := app.mqttClient.Subscribe(app.topicManager.GetFingerprintTopic(), app.fingerprintHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to fingerprint topic: %w", err)
	}

	app.accessPointHandler = handlers.NewAccessPointHandler(
		app.topicManager,
		app.accessPointService,
		logger.GetLogger("access-point-handler"),
	)

	if err := app.mqttClient.Subscribe(app.topicManager.GetAccessPointTopic(), app.accessPointHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to access point topic: %w", err)
	}

	return nil
}

func (app *Application) setupTableListeners() error {
	app.listenerManager = listeners.NewListenerManager(
		app.postgresDB.GetDB(),
		app.postgresDB.GetDSN(),
		logger.GetLogger("listener-manager"),
	)

	accessPointListener := listeners.NewAccessPointTableListener(
		logger.GetLogger("access-point-listener"),
		app.mqttClient,
		app.topicManager,
	)
	if err := app.listenerManager.RegisterListener(accessPointListener); err != nil {
		return fmt.Errorf("failed to register access point listener: %w", err)
	}

	if err := app.listenerManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize listener manager: %w", err)
	}

	app.listenerManager.Start()

	log.Info().Msg("All table listeners initialized and started")
	return nil
}

func (app *Application) run() error {
	select {
	case sig := <-app.shutdownChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-app.ctx.Done():
		log.Info().Msg("context cancelled, shutting down application")
	}

	return app.shutdown()
}

func (app *Application) shutdown() error {
	if app.listenerManager != nil {
		app.listenerManager.Stop()
	}

	if app.mqttClient != nil {
		app.mqttClient.Disconnect()
	}

	if app.influxDB != nil {
		app.influxDB.Close()
	}

	if app.postgresDB != nil {
		if err := app.postgresDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		}
	}

	app.cancelFunc()
	return nil
}
