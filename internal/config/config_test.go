package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "ctime algorithm", mutate: func(c *Config) { c.Algorithm = "ctime" }},
		{name: "unknown algorithm", mutate: func(c *Config) { c.Algorithm = "sha9000" }, wantErr: true},
		{name: "empty journal path", mutate: func(c *Config) { c.JournalPath = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Algorithm = "mtime"
	cfg.Roots = []string{"/srv/data"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mtime", loaded.Algorithm)
	assert.Equal(t, []string{"/srv/data"}, loaded.Roots)
	assert.Equal(t, path, loaded.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"algorithm":"md5lite"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "md5lite", cfg.Algorithm)
	assert.Equal(t, DefaultJournal, cfg.JournalPath)
	assert.Equal(t, 4, cfg.Workers)
}
