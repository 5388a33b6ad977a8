package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"body-scan/internal/container"
	"body-scan/internal/domain/entity"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one guided scan session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.New(cfg, log)
			if err != nil {
				return err
			}

			// Сканер подключается к боту до приёма первых команд.
			svc := c.NewScanService()

			botCtx, stopBot := context.WithCancel(ctx)
			botDone := make(chan struct{})
			if c.Bot != nil {
				go func() {
					defer close(botDone)
					if err := c.Bot.Run(botCtx); err != nil {
						log.Error().Err(err).Msg("telegram bot stopped")
					}
				}()
			} else {
				close(botDone)
			}
			defer func() {
				stopBot()
				<-botDone
			}()

			session, err := svc.Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("scan interrupted")
				return err
			}
			if session != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderSession(session))
				if c.Exporter != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", c.Exporter.SessionDir(session))
				}
			}
			return describeFatal(err)
		},
	}
}

// describeFatal оставляет ошибку как есть, добавляя подсказку оператору для известных отказов.
func describeFatal(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrNoDevice):
		return fmt.Errorf("%w (check camera permissions or pass --still-dir)", err)
	case errors.Is(err, entity.ErrEngineUnavailable):
		return fmt.Errorf("%w (is the pose engine running at estimator.url?)", err)
	default:
		return err
	}
}
