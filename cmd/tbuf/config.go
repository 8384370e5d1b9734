package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the tbuf configuration file (~/.config/tbuf/config.yaml).
// Flags take precedence over config values; config values over defaults.
type Config struct {
	// Server
	ServerAddress string `yaml:"server_address"`
	ServeRoot     string `yaml:"serve_root"`
	RateLimit     int    `yaml:"rate_limit"`

	// Output
	LogLevel string `yaml:"log_level"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tbuf", "config.yaml")
}

// loadConfig reads the config file if present. A missing file is not an
// error; a malformed one is.
func loadConfig() (Config, error) {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
