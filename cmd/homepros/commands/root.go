// Package commands defines the homepros command line: serve, migrate and
// seed.
package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"homepros/internal/config"
	"homepros/internal/database"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "homepros",
	Short: "Jacksonville Home Pros - local service provider directory API",
	Long: `homepros serves the JSON API behind the Jacksonville Home Pros directory:
categories, provider listings, reviews, claims, premium upgrades and the
admin back office.

Configuration is read from the environment (APP_*, POSTGRES_*, VALKEY_*,
S3_*, PLACES_*, PAYMENT_*).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Log as JSON (always on in production)")
}

// setupLogger installs the default slog logger. Production and --json log
// JSON; everything else logs text.
func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if jsonOutput || os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openDB loads the configuration and connects to PostgreSQL.
func openDB() (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.Connect(cfg.DSN(), cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
