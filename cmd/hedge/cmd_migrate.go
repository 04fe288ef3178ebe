package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
	"github.com/broseidonlordofthebrocean/hedge/internal/infrastructure/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema to the configured database",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbManager, err := db.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := dbManager.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("migration applied successfully")
	return nil
}
