// Command levrixctl runs maintenance tasks against a Levrix database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/levrixhq/levrix/config"
	"github.com/levrixhq/levrix/pkg/database"
	"github.com/levrixhq/levrix/pkg/logger"
)

var (
	cfg     *config.Config
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "levrixctl",
	Short: "Levrix maintenance tool",
	Long: `levrixctl manages a Levrix deployment from the command line.

Available commands:
  migrate  - Apply, roll back or inspect schema migrations
  seed     - Generate demo leads for an existing account
  dispatch - Send queued outreach messages that are due
  health   - Report duplicate and dirty leads of an account`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	if verbose {
		return logger.New("debug")
	}
	return logger.New(cfg.LogLevel)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// openDatabase connects and brings the schema up to date
func openDatabase() (*database.Client, error) {
	db, err := database.NewClientWithPool(cfg.DatabaseDriver, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
