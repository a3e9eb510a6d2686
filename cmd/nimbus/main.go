// Package main provides the nimbus command line tool: campus question
// answering, the clubs document generator and the source checksum.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/config"
	"github.com/calpoly-csai/nimbus-transformer/internal/logger"
	"github.com/calpoly-csai/nimbus-transformer/internal/observability"
)

var (
	configPath string
	verbose    bool
	debug      bool
	logLevel   string
	logFormat  string
)

// Set by PersistentPreRunE for every command.
var (
	cfg     *config.Config
	log     *zap.Logger
	printer *observability.Printer
)

var rootCmd = &cobra.Command{
	Use:   "nimbus",
	Short: "Answer questions about Cal Poly from campus web pages",
	Long: `nimbus answers natural-language questions about Cal Poly. It searches
calpoly.edu, scrapes the result pages, keeps the lines relevant to the
question and asks an extractive question answering model for the answer span.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (JSON or YAML)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print intermediate values")
	flags.BoolVarP(&debug, "debug", "d", false, "Print debug values and debug logs")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

// setup loads the configuration and builds the logger and printer.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	switch {
	case logLevel != "":
		cfg.LogLevel = logLevel
	case debug:
		cfg.LogLevel = "debug"
	case verbose:
		cfg.LogLevel = "info"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err = logger.New(cfg.LoggerOptions())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	printer = observability.NewPrinter(cmd.OutOrStdout())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
