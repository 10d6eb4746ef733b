// SoundBridge - self-hosted control plane for networked speakers.
//
// SoundBridge replaces the vendor cloud service the speakers were built
// against: device registration, presets, multiroom zones, playback
// state, and internet-radio stream resolution, all served from the
// local network.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wavetable-labs/soundbridge/internal/api"
	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/directory"
	"github.com/wavetable-labs/soundbridge/internal/discovery"
	"github.com/wavetable-labs/soundbridge/internal/events"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/config"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/database"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/logging"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/mqtt"
	"github.com/wavetable-labs/soundbridge/internal/playback"
	"github.com/wavetable-labs/soundbridge/internal/preset"
	"github.com/wavetable-labs/soundbridge/internal/store"
	"github.com/wavetable-labs/soundbridge/internal/zone"
	"github.com/wavetable-labs/soundbridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SoundBridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and apply schema migrations
	migrations.Register()
	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Core event bus feeding the websocket hub and the MQTT relay
	bus := events.NewBus()
	defer bus.Close()

	// Device registry over the durable record store
	recordStore := store.New(db)
	deviceRepo := store.NewDeviceRepository(recordStore, log)
	registry := device.NewRegistry(deviceRepo, cfg.Registry.AllowFallback)
	registry.SetLogger(log)
	registry.SetEvents(bus)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", len(registry.List(ctx)))

	// Preset store and zone coordinator
	presets := preset.NewStore(recordStore, registry)
	presets.SetLogger(log)
	presets.SetEvents(bus)

	zones := zone.NewCoordinator(registry)
	zones.SetLogger(log)
	zones.SetEvents(bus)

	// Stream resolver over the radio directory
	dirClient := directory.NewClient(directory.Options{
		BaseURL:   cfg.Directory.BaseURL,
		PartnerID: cfg.Directory.PartnerID,
		Username:  cfg.Directory.Username,
		Password:  cfg.Directory.Password,
		Formats:   cfg.Directory.Formats,
		Timeout:   cfg.GetDirectoryTimeout(),
	})
	resolver := directory.NewResolver(dirClient)
	resolver.SetLogger(log)

	machine := playback.NewMachine(registry, resolver, presets)
	machine.SetLogger(log)

	// Pre-register devices from the device file, if configured
	if cfg.Registry.DeviceFile != "" {
		if seedErr := seedDevices(ctx, cfg, registry, presets, log); seedErr != nil {
			return fmt.Errorf("seeding devices: %w", seedErr)
		}
	}

	// MQTT event relay (optional)
	if cfg.MQTT.Enabled {
		mqttClient := mqtt.NewClient(cfg.MQTT, log)
		if connectErr := mqttClient.Connect(); connectErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connectErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)

		relay := mqtt.NewRelay(mqttClient, bus, log)
		relay.Start(ctx)
		defer relay.Wait()
	} else {
		log.Info("MQTT relay disabled")
	}

	// mDNS advertisement so speakers find us without vendor DNS (optional)
	if cfg.Discovery.Enabled {
		advertiser := discovery.NewAdvertiser(discovery.Config{
			InstanceName: cfg.Discovery.ServiceName,
			Port:         cfg.API.Port,
		})
		advertiser.SetLogger(log)
		if startErr := advertiser.Start(); startErr != nil {
			// Advertising is a convenience; speakers can still be
			// pointed at us directly
			log.Warn("mDNS advertisement failed to start", "error", startErr)
		} else {
			defer advertiser.Stop()
			log.Info("mDNS advertisement started", "service", cfg.Discovery.ServiceName)
		}
	}

	// HTTP API and websocket notification feed
	server, err := api.New(api.Deps{
		Config:         cfg.API,
		WS:             cfg.WebSocket,
		Logger:         log,
		Registry:       registry,
		Presets:        presets,
		Zones:          zones,
		Playback:       machine,
		Directory:      dirClient,
		Bus:            bus,
		DefaultAccount: cfg.Account.DefaultID,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses SOUNDBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SOUNDBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// deviceFileEntry is one row of the startup device file.
type deviceFileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// seedDevices registers the devices listed in the configured device
// file and, when enabled, populates factory-default presets for those
// with no stored presets yet. Registration is idempotent, so running
// this on every start is safe.
func seedDevices(ctx context.Context, cfg *config.Config, registry *device.Registry, presets *preset.Store, log *logging.Logger) error {
	data, err := os.ReadFile(cfg.Registry.DeviceFile)
	if err != nil {
		return fmt.Errorf("reading device file: %w", err)
	}

	var entries []deviceFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing device file %s: %w", cfg.Registry.DeviceFile, err)
	}

	for _, entry := range entries {
		if entry.ID == "" {
			log.Warn("skipping device file entry with no id", "name", entry.Name)
			continue
		}
		if _, err := registry.Register(ctx, device.Device{
			ID:        entry.ID,
			Name:      entry.Name,
			Type:      entry.Type,
			Host:      entry.Host,
			Port:      entry.Port,
			AccountID: cfg.Account.DefaultID,
		}); err != nil {
			return fmt.Errorf("registering device %s: %w", entry.ID, err)
		}

		if cfg.Registry.SeedPresets {
			if err := presets.Seed(ctx, cfg.Account.DefaultID, entry.ID); err != nil {
				log.Warn("seeding default presets failed", "device_id", entry.ID, "error", err)
			}
		}
	}

	log.Info("device file processed", "path", cfg.Registry.DeviceFile, "devices", len(entries))
	return nil
}
