// Package config loads the application settings shared by the editor,
// the HTTP server and the command line tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable selecting the config file.
const EnvConfig = "RHEDITOR_CONFIG"

// DefaultPath is read when EnvConfig is unset.
const DefaultPath = "rheditor.yaml"

type Config struct {
	Files   FilesConfig   `yaml:"files"`
	PLC     PLCConfig     `yaml:"plc"`
	HTTP    HTTPConfig    `yaml:"http"`
	Journal JournalConfig `yaml:"journal"`
	// CacheTTL is how long a read value is shown as last known hours.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	LogFile  string        `yaml:"log_file"`
}

type FilesConfig struct {
	Equipment   string `yaml:"equipment"`
	Controllers string `yaml:"controllers"`
}

type PLCConfig struct {
	// Timeout applies to controllers without their own timeout.
	Timeout time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Listen    string  `yaml:"listen"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client IP
	Burst     int     `yaml:"burst"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	var c Config
	c.Journal.Enabled = true
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Files.Equipment == "" {
		c.Files.Equipment = "equips.json"
	}
	if c.Files.Controllers == "" {
		c.Files.Controllers = "plc.json"
	}
	if c.PLC.Timeout <= 0 {
		c.PLC.Timeout = 5 * time.Second
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.Burst <= 0 {
		c.HTTP.Burst = 10
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "rheditor.db"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.LogFile == "" {
		c.LogFile = "rheditor.log"
	}
}

// Load reads a YAML config file. A missing file yields Default().
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Journal: JournalConfig{Enabled: true}}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Path returns the config file selected by the environment.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}
