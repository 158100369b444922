package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command of the mechanic shop CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mechanic-shop",
		Short:         "Mechanic shop REST API",
		Long:          `Customers, mechanics, inventory and service tickets of an auto-repair shop over HTTP/JSON.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConsumeCmd())

	return cmd
}
