package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose   bool
	configDir string
	dsn       string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "admingrid",
	Short: "Serve declarative record widgets backed by SQL tables",
	Long: `admingrid loads *.widget.yaml / *.widget.json definitions from a
directory, binds each one to a table of the configured database and serves
the resulting widgets as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "widgets", "Directory holding widget definitions")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", envOr("ADMINGRID_DSN", "file:admingrid.db"), "SQLite data source name (or set ADMINGRID_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(actionCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
