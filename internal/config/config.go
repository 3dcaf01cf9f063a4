package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Listener and connection settings
	Server ServerConfig `yaml:"server"`

	// Persisted state locations
	Storage StorageConfig `yaml:"storage"`

	// Playback settings
	Playback PlaybackConfig `yaml:"playback"`

	// Credential hashing
	Auth AuthConfig `yaml:"auth"`

	// Logging
	Log LogConfig `yaml:"log"`
}

// ServerConfig represents the TCP listener and per-connection limits
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadBufferBytes   int           `yaml:"read_buffer_bytes"`
	MaxLineBytes      int           `yaml:"max_line_bytes"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	CommandsPerSecond float64       `yaml:"commands_per_second"` // 0 disables rate limiting
	CommandBurst      int           `yaml:"command_burst"`
}

// StorageConfig represents the files backing users, songs and playlists
type StorageConfig struct {
	Users     string `yaml:"users"`
	Songs     string `yaml:"songs"`
	Playlists string `yaml:"playlists"`
}

// PlaybackConfig represents playback settings
type PlaybackConfig struct {
	Backend     string        `yaml:"backend"`    // "timed" or "null"
	TimeScale   float64       `yaml:"time_scale"` // wall seconds per song second
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// AuthConfig represents credential hashing settings
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "localhost:7878",
			ReadBufferBytes:   1024,
			MaxLineBytes:      4096,
			WriteTimeout:      5 * time.Second,
			CommandsPerSecond: 20,
			CommandBurst:      40,
		},
		Storage: StorageConfig{
			Users:     "./data/users.txt",
			Songs:     "./data/songs.json",
			Playlists: "./data/playlists.json",
		},
		Playback: PlaybackConfig{
			Backend:     "timed",
			TimeScale:   1.0,
			StopTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			BcryptCost: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("invalid config: server.addr is empty")
	}
	if c.Server.ReadBufferBytes <= 0 {
		return fmt.Errorf("invalid config: server.read_buffer_bytes must be positive")
	}
	if c.Server.MaxLineBytes < c.Server.ReadBufferBytes {
		return fmt.Errorf("invalid config: server.max_line_bytes must be at least read_buffer_bytes")
	}
	if c.Server.CommandsPerSecond < 0 {
		return fmt.Errorf("invalid config: server.commands_per_second must not be negative")
	}
	if c.Storage.Users == "" || c.Storage.Songs == "" || c.Storage.Playlists == "" {
		return fmt.Errorf("invalid config: storage paths must be set")
	}
	switch c.Playback.Backend {
	case "timed", "null":
	default:
		return fmt.Errorf("invalid config: unknown playback backend %q", c.Playback.Backend)
	}
	if c.Playback.TimeScale <= 0 {
		return fmt.Errorf("invalid config: playback.time_scale must be positive")
	}
	return nil
}
