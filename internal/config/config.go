package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftwatch/driftwatch/internal/fingerprint"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".driftwatch", "config.json")
	DefaultJournal    = filepath.Join(home, ".driftwatch", "journal.db")
)

// Config is the on-disk configuration of the driftwatch binary.
type Config struct {
	Algorithm   string   `json:"algorithm"`
	FollowLinks bool     `json:"follow_links"`
	JournalPath string   `json:"journal_path"`
	Roots       []string `json:"roots"`
	Workers     int      `json:"workers"`
	Path        string   `json:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Algorithm:   string(fingerprint.MD5),
		JournalPath: DefaultJournal,
		Workers:     4,
	}
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if _, err := fingerprint.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if c.JournalPath == "" {
		return fmt.Errorf("journal_path must not be empty")
	}
	return nil
}

// Save writes the config as JSON, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a config file, filling unset fields from defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return cfg, nil
}
