package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/runq"
	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/pkg/log"
)

type options struct {
	configFile string
	scriptsDir string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           runq.Name,
		Short:         "Script queue runtime",
		Version:       runq.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "TOML config file")
	flags.StringVar(&opts.scriptsDir, "scripts", "",
		"script directory (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "",
		"debug, info, warn or error (overrides config)")

	root.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newCheckCmd(opts),
		newStatusCmd(),
	)
	return root
}

// load builds the configuration from defaults, the optional file, the
// environment and finally the command line
func (o *options) load() (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if o.configFile != "" {
		if err := cfg.LoadFile(o.configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if o.scriptsDir != "" {
		cfg.ScriptsDir = o.scriptsDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level := log.ParseLevel(cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithLevel(runq.Name, env, runq.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)
}
