package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"skillscope/dashboard/internal/config"
	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/observability"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:   "skillscope",
		Short: "Dashboard client for the skill recommender",
		Long: `skillscope talks to the skill recommender API: it shows service readiness,
browses users and jobs, requests skill recommendations and gap analyses, and
refreshes or replaces the recommender's data.

Run "skillscope serve" for the web dashboard with status polling, a gRPC health
endpoint and Prometheus metrics.

Configuration comes from flags, SKILLSCOPE_* environment variables (a .env file
is loaded if present) or a config file given with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String(config.KeyConfigFile, "", "config file (yaml, json or toml)")
	pf.String(config.KeyAPIURL, "http://127.0.0.1:5000/api", "recommender API base URL")
	pf.Duration(config.KeyTimeout, 0, "HTTP timeout per recommender request (default 30s)")
	pf.String(config.KeyLogLevel, "", "log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "", "log format: json or text")

	root.AddCommand(
		a.newServeCmd(),
		a.newStatusCmd(),
		a.newUsersCmd(),
		a.newJobsCmd(),
		a.newRecommendCmd(),
		a.newGapsCmd(),
		a.newRefreshCmd(),
		a.newUploadCmd(),
		a.newDiagnosticsCmd(),
	)
	return root
}

// init loads configuration and builds the logger. Command output goes to
// cmd.OutOrStdout; logs go to stderr.
func (a *app) init(cmd *cobra.Command) error {
	a.bind(cmd.Flags())
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}

func (a *app) client() *gateway.Client {
	return gateway.New(a.cfg.APIURL, a.cfg.HTTPTimeout)
}

// configFlags are the flag names that map onto config keys.
var configFlags = map[string]bool{
	config.KeyConfigFile:   true,
	config.KeyAPIURL:       true,
	config.KeyTimeout:      true,
	config.KeyPollInterval: true,
	config.KeyAddr:         true,
	config.KeyGRPCAddr:     true,
	config.KeyRedisURL:     true,
	config.KeyDatabaseURL:  true,
	config.KeySQLitePath:   true,
	config.KeyLogLevel:     true,
	config.KeyLogFormat:    true,
	config.KeyDiscardStale: true,
}

// bind ties the running command's config flags to viper so an explicitly set
// flag wins over env and file. Several subcommands may own the same key, so
// binding waits until the command is known.
func (a *app) bind(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if configFlags[f.Name] {
			_ = a.v.BindPFlag(f.Name, f)
		}
	})
}
