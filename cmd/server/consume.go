package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
	"github.com/iliyamo/mechanic-shop-api/internal/queue"
)

// NewConsumeCmd creates the consume-events subcommand.
func NewConsumeCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "consume-events",
		Short: "Write ticket events from RabbitMQ to a log file",
		Long:  `Consume the service_ticket.events queue and append one line per event to <dir>/service_tickets.log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Printf("consuming %s into %s\n", queue.TicketEventsQueue, dir)
			err = queue.Consumer{URL: cfg.AMQPURL, Dir: dir}.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "logs", "directory for "+queue.TicketLogFile)
	return cmd
}
