package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:           "development",
		StorageDriver: DriverSQLite,
		SQLitePath:    "kidflix.db",
		SnapshotKey:   "kidflix:state",
		RedisURL:      "localhost:6379",
		TracingRatio:  1,
		GraphWidth:    800,
		GraphHeight:   600,
		GraphFPS:      60,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Defaults are valid", func(*Config) {}, false},
		{"Unknown driver", func(c *Config) { c.StorageDriver = "postgres" }, true},
		{"SQLite without path", func(c *Config) { c.SQLitePath = "" }, true},
		{"Redis without URL", func(c *Config) { c.StorageDriver = DriverRedis; c.RedisURL = "" }, true},
		{"Memory driver", func(c *Config) { c.StorageDriver = DriverMemory }, false},
		{"Empty snapshot key", func(c *Config) { c.SnapshotKey = "" }, true},
		{"Zero viewport", func(c *Config) { c.GraphWidth = 0 }, true},
		{"Excessive FPS", func(c *Config) { c.GraphFPS = 1000 }, true},
		{"Sampler ratio above one", func(c *Config) { c.TracingRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("STORAGE_DRIVER")
	defer os.Unsetenv("GRAPH_FPS")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("STORAGE_DRIVER", "  MEMORY ")
	os.Setenv("GRAPH_FPS", "30")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, c.StorageDriver)
	assert.Equal(t, 30, c.GraphFPS)
	assert.Equal(t, "kidflix:state", c.SnapshotKey)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SNAPSHOT_KEY=from-dotenv\nGRAPH_FPS=45\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("GRAPH_FPS", "30")
	t.Cleanup(func() {
		os.Unsetenv("SNAPSHOT_KEY")
		viper.Reset()
	})

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.SnapshotKey)
	assert.Equal(t, 30, c.GraphFPS, "process environment wins over .env")
}
