package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all resurface configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Display  DisplayConfig  `yaml:"display"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`

	// Write routes (events, imports, edits) are rate limited per server.
	WritesPerSecond float64 `yaml:"writes_per_second"`
	WriteBurst      int     `yaml:"write_burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type DisplayConfig struct {
	Backgrounds int `yaml:"backgrounds"` // number of card backgrounds to rotate through
	CacheSize   int `yaml:"cache_size"`  // highlights whose background assignment is remembered
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:            "127.0.0.1",
			Port:            37778,
			WritesPerSecond: 20,
			WriteBurst:      40,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Display: DisplayConfig{
			Backgrounds: 12,
			CacheSize:   1024,
		},
	}
}

// DefaultPath returns ~/.resurface/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".resurface", "config.yaml"), nil
}

// Load reads a YAML config over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if p := os.Getenv("RESURFACE_DB"); p != "" {
		c.Database.Path = p
	}
	if b := os.Getenv("RESURFACE_BIND"); b != "" {
		c.Server.Bind = b
	}
	if p := os.Getenv("RESURFACE_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("RESURFACE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.WritesPerSecond <= 0 || c.Server.WriteBurst <= 0 {
		return fmt.Errorf("server write rate must be positive")
	}
	if c.Display.Backgrounds < 1 {
		return fmt.Errorf("display.backgrounds must be at least 1")
	}
	if c.Display.CacheSize < 1 {
		return fmt.Errorf("display.cache_size must be at least 1")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
