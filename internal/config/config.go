// Package config loads daemon configuration from YAML with environment
// overrides, and supports hot reload of tunables via fsnotify.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete daemon configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Playback PlaybackConfig `yaml:"playback"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig identifies the remote media server.
type ServerConfig struct {
	URL      string        `yaml:"url"`
	Token    string        `yaml:"token"`
	UserID   string        `yaml:"user_id"`
	DeviceID string        `yaml:"device_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// APIConfig configures the local control surface.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// PlaybackConfig holds playback tunables.
type PlaybackConfig struct {
	// MaxBitrate is the streaming bitrate ceiling in bits per second.
	// A per-user preference in the prefs store overrides it.
	MaxBitrate int `yaml:"max_bitrate"`
	// PreferBasicPlayer forces the software-decode adapter variant.
	PreferBasicPlayer bool   `yaml:"prefer_basic_player"`
	MPVPath           string `yaml:"mpv_path"`
}

// DataConfig locates on-device state.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the config file (if present), then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("server url is required (config server.url or COUCHPILOT_SERVER_URL)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COUCHPILOT_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("COUCHPILOT_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("COUCHPILOT_USER_ID"); v != "" {
		cfg.Server.UserID = v
	}
	if v := os.Getenv("COUCHPILOT_DEVICE_ID"); v != "" {
		cfg.Server.DeviceID = v
	}
	if v := os.Getenv("COUCHPILOT_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
	if v := os.Getenv("COUCHPILOT_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("COUCHPILOT_MAX_BITRATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Playback.MaxBitrate = n
		}
	}
	if v := os.Getenv("COUCHPILOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Server.DeviceID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.Server.DeviceID = "couchpilot-" + host
		} else {
			cfg.Server.DeviceID = "couchpilot"
		}
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8099"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "./couchpilot-data"
	}
	if cfg.Playback.MPVPath == "" {
		cfg.Playback.MPVPath = "mpv"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
