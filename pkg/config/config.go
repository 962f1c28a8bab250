package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	xdgAppName = "nextup"
	configFile = "config.json"

	defaultCalendar        = "Tasks"
	defaultDebounceSeconds = 2
	defaultActivityDays    = 365
)

type Config struct {
	// Calendar is the Google Calendar the today agenda is mirrored to.
	Calendar string `json:"calendar"`
	// DataDir holds the local database. Defaults to the config directory.
	DataDir string `json:"data_dir,omitempty"`
	// Timezone overrides the profile timezone when set.
	Timezone        string `json:"timezone,omitempty"`
	DebounceSeconds int    `json:"debounce_seconds,omitempty"`
	ActivityDays    int    `json:"activity_days,omitempty"`
}

// Debounce is the prompt debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// Location resolves the timezone override, nil when unset or invalid.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	if c.Timezone == "local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func GetConfigDir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.applyDefaults(filepath.Dir(path))
	return &cfg, nil
}

func (c *Config) applyDefaults(dir string) {
	if c.Calendar == "" {
		c.Calendar = defaultCalendar
	}
	if c.DataDir == "" {
		c.DataDir = dir
	}
	if c.DebounceSeconds <= 0 {
		c.DebounceSeconds = defaultDebounceSeconds
	}
	if c.ActivityDays <= 0 {
		c.ActivityDays = defaultActivityDays
	}
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
