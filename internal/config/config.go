package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all msgthread configuration.
type Config struct {
	Store        StoreConfig        `toml:"store"`
	Display      DisplayConfig      `toml:"display"`
	Participants ParticipantsConfig `toml:"participants"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means DataDir()/msgthread.db.
	Path string `toml:"path"`
	// MaxRetries bounds how often a mutation is replayed after a version
	// conflict.
	MaxRetries int `toml:"max_retries"`
}

// DisplayConfig holds CLI rendering settings.
type DisplayConfig struct {
	DateFormat    string `toml:"date_format"`
	SubjectWidth  int    `toml:"subject_width"`
	SnippetLength int    `toml:"snippet_length"`
}

// ParticipantsConfig holds participant selection settings.
type ParticipantsConfig struct {
	Default string `toml:"default"`
}

func defaults() Config {
	return Config{
		Store: StoreConfig{
			MaxRetries: 3,
		},
		Display: DisplayConfig{
			DateFormat:    "Jan 2, 2006",
			SubjectWidth:  50,
			SnippetLength: 80,
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Store.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid store.max_retries %d: must not be negative", cfg.Store.MaxRetries)
	}
	return &cfg, nil
}

// DatabasePath returns the configured database path or the default location.
func (c *Config) DatabasePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "msgthread.db")
}

// ConfigDir returns the msgthread config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "msgthread")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "msgthread")
}

// DataDir returns the msgthread data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "msgthread")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "msgthread")
}
