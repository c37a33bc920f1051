package main

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/bgg-xml-client/pkg/bgg"
	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/config"
	"github.com/Sternrassler/bgg-xml-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	cfgPath  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "bgg-proxy",
		Short:         "Rate-limited BoardGameGeek XML API client and JSON proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.cfgPath, "config", "c", "", "config yaml path (defaults apply when empty)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newFetchCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "bgg-proxy "+version)
			return err
		},
	}
}

// loadConfig reads the config file, or the defaults with BGG_* overrides
// when no file is given.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := strings.TrimSpace(opts.cfgPath)
	if path == "" {
		return config.Parse(nil)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// app bundles what every subcommand needs.
type app struct {
	source *config.Source
	api    *bgg.Client
	redis  *redis.Client
	logger zerolog.Logger
}

func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Setup(logging.Config{Level: level, Pretty: cfg.Logging.Pretty})
	logger := logging.NewLogger(logging.ComponentProxy)

	source, err := config.NewSource(*cfg)
	if err != nil {
		return nil, err
	}

	a := &app{source: source, logger: logger}

	var clientOpts []client.Option
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clientOpts = append(clientOpts, client.WithRedis(a.redis, cfg.Redis.KeyPrefix))
		logger.Info().
			Str("addr", cfg.Redis.Addr).
			Str("key", cfg.Redis.KeyPrefix).
			Msg("Sharing request window through Redis")
	}

	core, err := client.New(source, clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create BGG client: %w", err)
	}
	a.api = bgg.New(core)
	return a, nil
}
