// Package config loads and validates the stelae configuration.
// Precedence: defaults, then the YAML file, then STELAE_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	stelaeerrors "github.com/stelae/stelae/internal/errors"
)

// Config is the complete stelae configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
	Events    EventsConfig    `yaml:"events" json:"events"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// DataDir is the root directory for all stelae state.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// GraphDB is the SQLite graph store path. Defaults under DataDir.
	GraphDB string `yaml:"graph_db" json:"graph_db"`
	// ObjectIndex is the bleve object index directory. Defaults under DataDir.
	ObjectIndex string `yaml:"object_index" json:"object_index"`
	// MetadataIndex is the bleve metadata index directory. Defaults under DataDir.
	MetadataIndex string `yaml:"metadata_index" json:"metadata_index"`
}

// IndexConfig configures batching and metadata handling during rebuilds.
type IndexConfig struct {
	// BatchSize is the number of documents per add+commit round trip
	// during a full object rebuild.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// MetadataPageSize is the number of metadata rows fetched per page
	// during a full metadata rebuild.
	MetadataPageSize int `yaml:"metadata_page_size" json:"metadata_page_size"`

	// MetadataValueCap truncates metadata values longer than this many
	// characters before indexing.
	MetadataValueCap int `yaml:"metadata_value_cap" json:"metadata_value_cap"`
}

// SchedulerConfig configures the periodic full rebuild.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// EventsConfig configures the mutation-event worker.
type EventsConfig struct {
	// QueueSize bounds the in-flight mutation event queue. Events past
	// the bound are dropped with a warning rather than blocking the caller.
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// ServerConfig configures the admin HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// LoggingConfig mirrors logging.Config in the YAML schema.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: ".stelae",
		},
		Index: IndexConfig{
			BatchSize:        1000,
			MetadataPageSize: 25000,
			MetadataValueCap: 4096,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: 4 * time.Hour,
		},
		Events: EventsConfig{
			QueueSize: 1024,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7474,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (optional), applies environment
// overrides, resolves derived paths, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, stelaeerrors.New(stelaeerrors.ErrCodeConfigNotFound,
					fmt.Sprintf("config file %s not found", path), err)
			}
			return nil, stelaeerrors.ConfigError("failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, stelaeerrors.ConfigError("failed to parse config file", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePaths fills in derived paths under DataDir when unset.
func (c *Config) resolvePaths() {
	if c.Paths.GraphDB == "" {
		c.Paths.GraphDB = filepath.Join(c.Paths.DataDir, "graph.db")
	}
	if c.Paths.ObjectIndex == "" {
		c.Paths.ObjectIndex = filepath.Join(c.Paths.DataDir, "object.bleve")
	}
	if c.Paths.MetadataIndex == "" {
		c.Paths.MetadataIndex = filepath.Join(c.Paths.DataDir, "metadata.bleve")
	}
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return stelaeerrors.ConfigError("paths.data_dir must not be empty", nil)
	}
	if c.Index.BatchSize <= 0 {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("index.batch_size must be positive, got %d", c.Index.BatchSize), nil)
	}
	if c.Index.MetadataPageSize <= 0 {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("index.metadata_page_size must be positive, got %d", c.Index.MetadataPageSize), nil)
	}
	if c.Index.MetadataValueCap <= 0 {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("index.metadata_value_cap must be positive, got %d", c.Index.MetadataValueCap), nil)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("scheduler.interval must be at least 1m, got %s", c.Scheduler.Interval), nil)
	}
	if c.Events.QueueSize <= 0 {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("events.queue_size must be positive, got %d", c.Events.QueueSize), nil)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return stelaeerrors.ConfigError(
			fmt.Sprintf("server.port out of range: %d", c.Server.Port), nil)
	}
	return nil
}

// applyEnvOverrides applies STELAE_* environment variables on top of
// file values. Env vars win over the file, which wins over defaults.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STELAE_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
		// Derived paths follow the new root unless set explicitly.
		cfg.Paths.GraphDB = ""
		cfg.Paths.ObjectIndex = ""
		cfg.Paths.MetadataIndex = ""
	}
	if v := os.Getenv("STELAE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.BatchSize = n
		}
	}
	if v := os.Getenv("STELAE_METADATA_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MetadataPageSize = n
		}
	}
	if v := os.Getenv("STELAE_REBUILD_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.Interval = d
		}
	}
	if v := os.Getenv("STELAE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STELAE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
}
