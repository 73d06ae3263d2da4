package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Store  Store  `yaml:"store"`
	Fetch  Fetch  `yaml:"fetch"`
	Report Report `yaml:"report"`
	Output Output `yaml:"output"`
	Server Server `yaml:"server"`
}

// Store locates the external knowledge base. Collections are opaque
// identifiers supplied by the store, never derived here.
type Store struct {
	BaseURL          string `yaml:"base_url"`
	TokenEnv         string `yaml:"token_env"`
	SourceCollection string `yaml:"source_collection"`
	ReportCollection string `yaml:"report_collection"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

type Fetch struct {
	PageSize    int `yaml:"page_size"`
	MaxAttempts int `yaml:"max_attempts"`
	BackoffMS   int `yaml:"backoff_ms"`
}

type Report struct {
	TitlePrefix string `yaml:"title_prefix"`
	DefaultDays int    `yaml:"default_days"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for hansei.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "hansei")
}

// DataDir returns the XDG data directory for hansei.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "hansei")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/hansei/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'hansei init' to create a default config",
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
		Store: Store{
			TokenEnv:       "HANSEI_STORE_TOKEN",
			TimeoutSeconds: 30,
		},
		Fetch: Fetch{
			PageSize:    100,
			MaxAttempts: 4,
			BackoffMS:   500,
		},
		Report: Report{
			TitlePrefix: "Reflection Report",
			DefaultDays: 7,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the store locations a run needs are present.
func (c *Config) Validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store.base_url is required")
	}
	if c.Store.SourceCollection == "" {
		return fmt.Errorf("store.source_collection is required")
	}
	if c.Store.ReportCollection == "" {
		return fmt.Errorf("store.report_collection is required")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
