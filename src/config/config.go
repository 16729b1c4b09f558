package config

import (
	"fmt"
	"os"
	"time"

	"bikeflow-observer/src/models"
	"bikeflow-observer/src/utils"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills optional fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.PublishWindow == "" {
		c.PublishWindow = models.WindowNow
	}
	if c.Feed.RetentionHours == 0 {
		c.Feed.RetentionHours = utils.DefaultRetentionHours
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "file"
	}
	if c.Storage.HistoryPath == "" {
		c.Storage.HistoryPath = "history.json"
	}
	if c.Storage.SnapshotPath == "" {
		c.Storage.SnapshotPath = "snapshot.json"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 20
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate published window choice
	switch c.PublishWindow {
	case models.WindowDay, models.WindowHour, models.WindowNow:
	default:
		return fmt.Errorf("invalid publish_window: %q (must be day, hour or now)", c.PublishWindow)
	}

	// Validate window timezone (empty = process-local zone)
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}

	// Validate Feed configuration
	if c.Feed.InformationURL == "" {
		return fmt.Errorf("feed information_url cannot be empty")
	}
	if c.Feed.StatusURL == "" {
		return fmt.Errorf("feed status_url cannot be empty")
	}
	if c.Feed.RetentionHours <= 0 {
		return fmt.Errorf("retention hours must be greater than 0")
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "file":
		if c.Storage.HistoryPath == "" || c.Storage.SnapshotPath == "" {
			return fmt.Errorf("history_path and snapshot_path cannot be empty for file storage")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported db_type: %q", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Server configuration (only used by -serve)
	if c.Port != 0 && (c.Port <= 1024 || c.Port > 65535) {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	return nil
}

// -----------------------------------------------------------------------------

// WindowLocation resolves the configured window timezone. Validate has
// already checked the name, so failures here only occur for an unvalidated
// Config and fall back to the process-local zone.
func (c *Config) WindowLocation() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
