// Package main provides the certidesk-migrate CLI, which prepares the
// contact table ahead of the first submission.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"certidesk/internal/config"
	"certidesk/internal/database"
	"certidesk/internal/logging"
)

var (
	// databaseURL is set by the --database-url flag and overrides DATABASE_URL
	databaseURL string

	// timeout bounds the whole command
	timeout time.Duration

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "certidesk-migrate",
	Short: "Manage the CERTIDESK contact table",
	Long: `certidesk-migrate creates the contact table and its indexes on the
configured SQL database. Every statement is idempotent, so it is safe to run
on each deploy.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (default: $DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the contact table and indexes if absent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		store, err := database.OpenContactStore(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		fmt.Println("Contact table is ready")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		db, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close(db)

		fmt.Println("Database is reachable")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s\n", cfg.App.Name, cfg.App.Version)
	},
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}
	logger = logging.New(cfg.Log)

	if cmd.Name() != versionCmd.Name() && cfg.Database.URL == "" {
		return fmt.Errorf("no database configured: set DATABASE_URL or pass --database-url")
	}
	return nil
}
