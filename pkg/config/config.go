// Package config loads the control core's static configuration: Operation
// Engine timeouts, the carrier-config mapping file location, and the diagnostics
// HTTP server settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Application  ApplicationConfig  `yaml:"application"`
	Engine       EngineConfig       `yaml:"engine"`
	Carrier      CarrierConfig      `yaml:"carrier"`
	Location     LocationConfig     `yaml:"location"`
	Diagnostics  DiagnosticsConfig  `yaml:"diagnostics"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ApplicationConfig holds application identity.
type ApplicationConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// EngineConfig tunes the Operation Engine's default timeouts.
type EngineConfig struct {
	DefaultStepTimeout time.Duration `yaml:"default_step_timeout"`
	ResetStepTimeout   time.Duration `yaml:"reset_step_timeout"`
}

// CarrierConfig points at the carrier-config mapping keyfile described in
// spec §6.
type CarrierConfig struct {
	MappingFile string `yaml:"mapping_file"`
}

// LocationConfig holds defaults for the Location Subsystem.
type LocationConfig struct {
	SUPLTimeout      time.Duration `yaml:"supl_timeout"`
	DefaultPartSize  int           `yaml:"default_part_size"`
	MinNMEAIntervalMS int          `yaml:"min_nmea_interval_ms"`
}

// DiagnosticsConfig configures the operational HTTP/WebSocket surface.
type DiagnosticsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no config file is supplied.
func Default() Config {
	return Config{
		Application: ApplicationConfig{Name: "qmicontrold", Version: "dev"},
		Engine: EngineConfig{
			DefaultStepTimeout: 10 * time.Second,
			ResetStepTimeout:   10 * time.Second,
		},
		Carrier: CarrierConfig{
			MappingFile: "/etc/qmicore/carrier-mapping.conf",
		},
		Location: LocationConfig{
			SUPLTimeout:       10 * time.Second,
			DefaultPartSize:   1024,
			MinNMEAIntervalMS: 1000,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:    true,
			ListenAddr: ":8088",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and parses a YAML configuration file, filling in defaults for
// anything left unset.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	return cfg, nil
}
