package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server   Server   `yaml:"server"`
	Store    Store    `yaml:"store"`
	Fetch    Fetch    `yaml:"fetch"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Fetch struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxParallel    int    `yaml:"max_parallel"`
	MaxPerFeed     int    `yaml:"max_per_feed"`
	UserAgent      string `yaml:"user_agent"`
}

type Security struct {
	AdminRole    string   `yaml:"admin_role"`
	AllowedKinds []string `yaml:"allowed_kinds"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newsreader.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsreader")
}

// DataDir returns the XDG data directory for newsreader.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsreader")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsreader/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsreader init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{Port: 8000},
		Fetch: Fetch{
			TimeoutSeconds: 15,
			MaxParallel:    8,
			MaxPerFeed:     20,
			UserAgent:      "newsreader/1.0 (feed aggregator)",
		},
		Security: Security{
			AdminRole:    "portal-admin",
			AllowedKinds: []string{"rss", "rss-fullstory"},
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// StorePath returns the effective sqlite path from config or the XDG default.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "newsreader.db")
}

// FetchTimeout returns the per-feed fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
