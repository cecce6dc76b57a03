package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/config"
	"github.com/petasbytes/lotus/internal/logging"
	"github.com/petasbytes/lotus/internal/telemetry"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "lotus",
		Short:         "Chat with a local or hosted model that can call tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml or toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newChatCmd(opts), newToolsCmd(opts))
	return cmd
}

// setup loads configuration and builds the logger. Telemetry is configured
// as a side effect.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	telemetry.Configure(cfg.Telemetry.Observe, cfg.Telemetry.Dir)
	return cfg, log, nil
}
