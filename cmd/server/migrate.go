package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
	"github.com/iliyamo/mechanic-shop-api/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  `Create the tables for the configured DB_DRIVER.  Safe to run repeatedly.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cmd.Println("Connecting to database...")
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := database.Migrate(context.Background(), db, cfg.DBDriver); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
