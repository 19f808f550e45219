// ckb daemon - Corsair peripheral control daemon
//
// This is the main entry point for the ckb daemon. It owns every
// attached Corsair keyboard and mouse, interprets the text command
// protocol for each one, and persists profiles across restarts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/john-yian/ckb-next/migrations"

	"github.com/john-yian/ckb-next/internal/daemon"
	"github.com/john-yian/ckb-next/internal/device"
	"github.com/john-yian/ckb-next/internal/infrastructure/config"
	"github.com/john-yian/ckb-next/internal/infrastructure/database"
	"github.com/john-yian/ckb-next/internal/infrastructure/influxdb"
	"github.com/john-yian/ckb-next/internal/infrastructure/logging"
	"github.com/john-yian/ckb-next/internal/infrastructure/mqtt"
	"github.com/john-yian/ckb-next/internal/usb"
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

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ckb daemon",
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

	// Initialise the HID library
	if err := usb.Init(); err != nil {
		return fmt.Errorf("initialising hid: %w", err)
	}
	defer func() {
		if exitErr := usb.Exit(); exitErr != nil {
			log.Error("error releasing hid library", "error", exitErr)
		}
	}()

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

	// Profile persistence
	profileRepo := device.NewSQLiteProfileRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
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

	// Device session manager
	var metrics daemon.Metrics
	if influxClient != nil {
		metrics = influxClient
	}
	service := daemon.NewService(cfg.Daemon, mqttClient, profileRepo, metrics)
	service.SetLogger(log)

	serviceDone := make(chan error, 1)
	go func() {
		serviceDone <- service.Run(ctx)
	}()

	// USB bus scanner feeding the service
	scanner := daemon.NewScanner(service, cfg.USB.VendorID, cfg.GetScanInterval())
	go scanner.Run(ctx)
	log.Info("usb scanner running",
		"vendor_id", fmt.Sprintf("%#04x", cfg.USB.VendorID),
		"interval", cfg.GetScanInterval(),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Announce the daemon on the system status topic
	if err := mqttClient.PublishRetained(mqtt.Topics{}.SystemStatus(), []byte("online")); err != nil {
		log.Warn("publishing system status failed", "error", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// The service detaches every device (saving profiles) when its
	// context ends; wait for that before tearing down infrastructure.
	if err := <-serviceDone; err != nil {
		log.Error("device service error", "error", err)
	}

	if err := mqttClient.PublishRetained(mqtt.Topics{}.SystemStatus(), []byte("offline")); err != nil {
		log.Warn("publishing system status failed", "error", err)
	}

	log.Info("ckb daemon stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CKB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CKB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
