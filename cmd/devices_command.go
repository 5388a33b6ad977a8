package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "body-scan/internal/application"
	"body-scan/internal/container"
)

func newDevicesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List cameras the scanner can open",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			// Бот для списка камер не нужен.
			cfg.Telegram.Token = ""

			c, err := container.New(cfg, log)
			if err != nil {
				return err
			}

			devices, err := c.Devices.ListCameras(cmd.Context())
			if err != nil {
				return describeFatal(err)
			}
			def, _ := app.SelectDefault(devices)

			fmt.Fprintln(cmd.OutOrStdout(), renderDevices(devices, def))
			return nil
		},
	}
}
