package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/app"
	"github.com/ternarybob/oilreport/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported
	envFile     string
	days        int
	windowMode  string
	noEmail     bool
	dryRun      bool
	logLevel    string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "oilreport",
	Short: "Daily WTI, Brent and bunker price report",
	Long: `Fetches WTI and Brent spot prices from the EIA, reads Singapore bunker
prices (VLSFO, LSMGO, HSFO) from the published price table, prints a
fixed-width report and emails it.

Intended to be run once per business day by an external scheduler.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load before reading config (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")

	rootCmd.Flags().IntVarP(&days, "days", "n", common.DefaultWindowDays, "Number of report dates")
	rootCmd.Flags().StringVar(&windowMode, "mode", "", "Window mode: business-days or calendar-days")
	rootCmd.Flags().BoolVar(&noEmail, "no-email", false, "Print the report without sending it")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fetch and print only; mail settings are not required")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence shared by every command:
// .env -> defaults -> file1 -> file2 -> ... -> env -> CLI flags.
func loadConfig(cmd *cobra.Command) error {
	if err := common.LoadDotEnv(envFile); err != nil {
		return err
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	overrides := common.FlagOverrides{}
	flags := cmd.Flags()
	if flags.Changed("days") {
		overrides.Days = &days
	}
	if flags.Changed("mode") {
		overrides.Mode = &windowMode
	}
	if flags.Changed("no-email") {
		overrides.NoEmail = &noEmail
	}
	if flags.Changed("dry-run") {
		overrides.DryRun = &dryRun
	}
	if flags.Changed("log-level") {
		overrides.LogLevel = &logLevel
	}
	common.ApplyFlagOverrides(config, overrides)

	logger = common.SetupLogger(config)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		// Use the default logger for startup errors
		common.GetLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return err
	}

	// Scheduled production runs keep stdout to the report itself
	if !config.IsProduction() {
		common.PrintBanner(common.Version)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Int("days", config.Report.Days).
		Str("mode", config.Report.Mode).
		Str("bunker_strategy", config.Bunker.Strategy).
		Str("bunker_render", config.Bunker.Render).
		Bool("mail_enabled", config.Mail.Enabled).
		Bool("dry_run", config.Report.DryRun).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := application.Run(ctx)

	logger.Info().
		Str("run_id", result.RunID).
		Bool("emailed", result.Emailed).
		Bool("email_sent", result.EmailSent).
		Msg("Report run complete")
	return nil
}
