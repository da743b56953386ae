package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/dashboard/internal/config"
)

func load(t *testing.T) (*config.Config, error) {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	return config.Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000/api", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, ":8090", cfg.Addr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.SQLitePath)
	assert.False(t, cfg.DiscardStale)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SKILLSCOPE_API_URL", "https://recommender.internal/api/")
	t.Setenv("SKILLSCOPE_TIMEOUT", "5s")
	t.Setenv("SKILLSCOPE_POLL_INTERVAL", "1m")
	t.Setenv("SKILLSCOPE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SKILLSCOPE_DISCARD_STALE", "true")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "https://recommender.internal/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.DiscardStale)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skillscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api-url: http://10.0.0.5:5000/api\naddr: \":9999\"\n"), 0o600))

	v := viper.New()
	config.SetDefaults(v)
	v.Set(config.KeyConfigFile, path)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5000/api", cfg.APIURL)
	assert.Equal(t, ":9999", cfg.Addr)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set(config.KeyConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := config.Config{APIURL: "http://localhost:5000/api", HTTPTimeout: time.Second, PollInterval: time.Second, Addr: ":8090"}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *config.Config){
		"empty url":      func(c *config.Config) { c.APIURL = "" },
		"ftp url":        func(c *config.Config) { c.APIURL = "ftp://host/api" },
		"no host":        func(c *config.Config) { c.APIURL = "http:///api" },
		"zero timeout":   func(c *config.Config) { c.HTTPTimeout = 0 },
		"short interval": func(c *config.Config) { c.PollInterval = 100 * time.Millisecond },
		"no addr":        func(c *config.Config) { c.Addr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	c := config.Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api-url")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "addr")
}
