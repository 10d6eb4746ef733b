package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SoundBridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Account   AccountConfig   `yaml:"account"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Directory DirectoryConfig `yaml:"directory"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Registry  RegistryConfig  `yaml:"registry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AccountConfig contains the account partition settings.
// Devices that register without an explicit account are filed under DefaultID.
type AccountConfig struct {
	DefaultID string `yaml:"default_id"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket notification settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// DirectoryConfig contains the internet-radio directory service settings.
// The directory resolves station identifiers to playable stream URLs.
type DirectoryConfig struct {
	BaseURL   string `yaml:"base_url"`
	PartnerID string `yaml:"partner_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Formats   string `yaml:"formats"`
	Timeout   int    `yaml:"timeout"`
}

// DiscoveryConfig contains mDNS advertisement settings.
// When enabled, speakers on the local network can find the server
// without the vendor's DNS redirect.
type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// MQTTConfig contains the optional MQTT event relay settings.
// When enabled, core change notifications are mirrored onto an MQTT broker
// for home-automation integration.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// RegistryConfig contains device registry behaviour settings.
type RegistryConfig struct {
	// AllowFallback preserves the legacy single-speaker behaviour where a
	// lookup for an unknown device id returns the first registered device.
	// Multi-device deployments should leave this off.
	AllowFallback bool `yaml:"allow_fallback"`

	// DeviceFile is an optional JSON file of devices to register at startup.
	DeviceFile string `yaml:"device_file"`

	// SeedPresets populates factory-default presets for devices loaded
	// from DeviceFile that have no stored presets yet.
	SeedPresets bool `yaml:"seed_presets"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOUNDBRIDGE_SECTION_KEY
// For example: SOUNDBRIDGE_DATABASE_PATH, SOUNDBRIDGE_DIRECTORY_USERNAME
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The API port defaults to 8090 because that is the port the speakers
// expect the control plane to answer on.
func defaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			DefaultID: "default",
		},
		Database: DatabaseConfig{
			Path:        "./data/soundbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/notifications",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Directory: DirectoryConfig{
			BaseURL:   "https://opml.radiotime.com",
			PartnerID: "SoundBridge",
			Formats:   "mp3,aac,ogg,hls",
			Timeout:   10,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			ServiceName: "soundbridge",
		},
		MQTT: MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "soundbridge-core",
			QoS:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SOUNDBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOUNDBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("SOUNDBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("SOUNDBRIDGE_DIRECTORY_URL"); v != "" {
		cfg.Directory.BaseURL = v
	}
	if v := os.Getenv("SOUNDBRIDGE_DIRECTORY_USERNAME"); v != "" {
		cfg.Directory.Username = v
	}
	if v := os.Getenv("SOUNDBRIDGE_DIRECTORY_PASSWORD"); v != "" {
		cfg.Directory.Password = v
	}

	if v := os.Getenv("SOUNDBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("SOUNDBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("SOUNDBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Account.DefaultID == "" {
		errs = append(errs, "account.default_id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Directory.BaseURL == "" {
		errs = append(errs, "directory.base_url is required")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDirectoryTimeout returns the directory lookup timeout as a Duration.
func (c *Config) GetDirectoryTimeout() time.Duration {
	return time.Duration(c.Directory.Timeout) * time.Second
}
