package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"body-scan/config"
	"body-scan/internal/logger"
)

type options struct {
	configPath string
	device     string
	stillDir   string
	logLevel   string
}

func (o *options) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.device != "" {
		cfg.Camera.Device = o.device
	}
	if o.stillDir != "" {
		cfg.Camera.StillDir = o.stillDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, logger.NewConsole(logger.ParseLevel(cfg.Log.Level)), nil
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "body-scan",
		Short:         "Guided body-scan capture",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().StringVar(&opts.device, "device", "", "Camera ID or path, overrides camera.device")
	rootCmd.PersistentFlags().StringVar(&opts.stillDir, "still-dir", "", "Replay frames from a directory instead of a live camera")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newDevicesCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}
