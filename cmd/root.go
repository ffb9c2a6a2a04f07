// =============================================================================
// Invoice Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoicer)
//   ├── processCmd (invoicer process)
//   ├── renderCmd  (invoicer render)
//   ├── inspectCmd (invoicer inspect)
//   └── versionCmd (invoicer version)
//
// The root command owns the global flags, loads the configuration and builds
// the logger shared by the subcommands.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/xlsx-invoice-generator/internal/config"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/logger"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/render"
	"github.com/ginjaninja78/xlsx-invoice-generator/internal/workbook"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides the configured log format.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Invoice Generator - Turn shipment spreadsheets into PDF invoices",
	Long: `Invoice Generator reads a flat shipment/billing export (xlsx, xls or csv)
in which every row is one line item, groups the rows by invoice number and
produces one PDF per invoice plus a combined PDF of all invoices.

Example Usage:
  invoicer process                         # Process every workbook in the input directory
  invoicer process --config ./billing.yaml # Use a custom configuration file
  invoicer render export.xlsx --invoice 1001
  invoicer inspect export.xlsx --format yaml`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the command context so
// running work stops at the next document boundary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		stop()
		os.Exit(1)
	}
}

// userMessage returns the single user-facing line for err.
func userMessage(err error) string {
	var perr *workbook.ParseError
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	var rerr *render.RenderError
	if errors.As(err, &rerr) {
		return rerr.UserMessage()
	}
	return err.Error()
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: console or json (overrides config)",
	)
}

// =============================================================================
// APPLICATION CONTEXT
// =============================================================================

// appContext bundles what every working command needs.
type appContext struct {
	cfg *config.MainConfig
	log zerolog.Logger
}

// loadApp loads the configuration and builds the logger. Logs go to
// stderr so that command output on stdout stays machine-readable.
func loadApp(cmd *cobra.Command) (*appContext, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	opts := logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: cmd.ErrOrStderr()}
	if verbose {
		opts.Level = "debug"
	}
	if logFormat != "" {
		opts.Format = logFormat
	}

	log, err := logger.NewWithOptions(opts)
	if err != nil {
		return nil, err
	}

	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return &appContext{cfg: cfg, log: log}, nil
}
