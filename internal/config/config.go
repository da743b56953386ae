// Package config loads and validates runtime settings at startup.
// Fail-fast: an invalid value stops the process before anything connects.
//
// Values come from, in increasing precedence: defaults, an optional config
// file, SKILLSCOPE_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables, e.g. SKILLSCOPE_API_URL.
const EnvPrefix = "SKILLSCOPE"

// Keys shared by viper, flags and environment variables.
const (
	KeyConfigFile   = "config"
	KeyAPIURL       = "api-url"
	KeyTimeout      = "timeout"
	KeyPollInterval = "poll-interval"
	KeyAddr         = "addr"
	KeyGRPCAddr     = "grpc-addr"
	KeyRedisURL     = "redis-url"
	KeyDatabaseURL  = "database-url"
	KeySQLitePath   = "sqlite-path"
	KeyLogLevel     = "log-level"
	KeyLogFormat    = "log-format"
	KeyDiscardStale = "discard-stale"
)

// Config holds all runtime configuration for the dashboard.
type Config struct {
	APIURL       string
	HTTPTimeout  time.Duration
	PollInterval time.Duration

	Addr     string
	GRPCAddr string // empty disables the gRPC health server

	// Optional diagnostic sinks; empty disables each.
	RedisURL    string
	DatabaseURL string
	SQLitePath  string

	LogLevel  string
	LogFormat string

	DiscardStale bool
}

// SetDefaults registers default values and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "http://127.0.0.1:5000/api")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyPollInterval, 30*time.Second)
	v.SetDefault(KeyAddr, ":8090")
	v.SetDefault(KeyGRPCAddr, ":9090")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyDiscardStale, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads v (after SetDefaults) and returns a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		APIURL:       strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		HTTPTimeout:  v.GetDuration(KeyTimeout),
		PollInterval: v.GetDuration(KeyPollInterval),
		Addr:         v.GetString(KeyAddr),
		GRPCAddr:     v.GetString(KeyGRPCAddr),
		RedisURL:     v.GetString(KeyRedisURL),
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		SQLitePath:   v.GetString(KeySQLitePath),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		DiscardStale: v.GetBool(KeyDiscardStale),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIURL)
	switch {
	case c.APIURL == "":
		errs = append(errs, fmt.Errorf("%s is required", KeyAPIURL))
	case err != nil:
		errs = append(errs, fmt.Errorf("%s: %w", KeyAPIURL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("%s must be an http(s) URL, got %q", KeyAPIURL, c.APIURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("%s has no host: %q", KeyAPIURL, c.APIURL))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.HTTPTimeout))
	}
	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("%s must be at least 1s, got %s", KeyPollInterval, c.PollInterval))
	}
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyAddr))
	}

	return errors.Join(errs...)
}
