// Command colframe inspects and benchmarks columns built from compressed
// chunk streams.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/config"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/observability"
)

var version = "0.1.0"

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "colframe",
		Short: "colframe - typed columnar storage",
		Long: `colframe builds immutable typed columns from compressed chunk streams.
It can encode raw values into framed streams, decode them into columns and
benchmark column construction, sorting and row selection.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configFile != "" {
				cfg, err = config.Load(configFile)
				if err != nil {
					return err
				}
			} else {
				cfg = config.NewDefault()
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			return cfg.Apply()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := observability.Shutdown(ctx); err != nil {
				logger.Warn("failed to flush traces", zap.Error(err))
			}
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("colframe v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newEncodeCommand())
	root.AddCommand(newIngestCommand())
	root.AddCommand(newBenchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
