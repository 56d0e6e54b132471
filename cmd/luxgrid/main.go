// Luxgrid Core - Street Lighting Control Backend
//
// This is the main entry point for the Luxgrid Core application.
// Luxgrid fronts a fleet of lamp gateways: it keeps the registry of
// known lamps, pushes control commands to devices over MQTT, and
// records every operator action in an activity log.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/luxgrid/luxgrid-core/migrations"

	"github.com/luxgrid/luxgrid-core/internal/activity"
	"github.com/luxgrid/luxgrid-core/internal/api"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/config"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/database"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/influxdb"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/logging"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/mqtt"
	"github.com/luxgrid/luxgrid-core/internal/lamp"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Luxgrid Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	lampRepo := lamp.NewSQLiteRepository(db)
	activityRepo := activity.NewSQLiteRepository(db)

	// Connect to MQTT broker. An unreachable broker is not fatal:
	// the client keeps retrying in the background and lamp commands
	// fail individually until it recovers.
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		if !errors.Is(err, mqtt.ErrConnectionFailed) {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		log.Warn("MQTT broker unreachable at startup, retrying in background",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"error", err,
		)
	} else {
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected to broker")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional lamp telemetry)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is shared: the lamp service broadcasts into it and
	// the API server owns the client connections.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Lamp service
	serviceDeps := lamp.Deps{
		Repo:        lampRepo,
		Activity:    activityRepo,
		Publisher:   mqttClient,
		Logger:      log,
		Broadcaster: hub,
	}
	if influxClient != nil {
		serviceDeps.Telemetry = influxClient
	}
	lampService := lamp.NewService(serviceDeps)

	// API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Lamps:       lampService,
		Activity:    activityRepo,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Luxgrid Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUXGRID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUXGRID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
