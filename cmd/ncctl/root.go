package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomorrowflow/nextcloud-compose/internal/config"
	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// cfg and app are populated by PersistentPreRunE and shared with all
	// subcommands.
	cfg *config.Config
	app *AppContext
)

var rootCmd = &cobra.Command{
	Use:   "ncctl",
	Short: "Bootstrap a Nextcloud stack with Docker Compose",
	Long: `ncctl collects the deployment settings, provisions the host, starts the
Traefik, MariaDB, Redis and Nextcloud containers, waits for the first start
to finish and applies the post-install configuration.

Run without a subcommand it performs a full install.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runInstall,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// flags take precedence over the config file
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}

		app, err = buildAppContext(cfg, telemetry.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format))
		if err != nil {
			return fmt.Errorf("building app context: %w", err)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if app != nil {
			return app.Close()
		}
		return nil
	}

	rootCmd.AddCommand(installCmd, envCmd, upCmd, waitCmd, configureCmd,
		doctorCmd, statusCmd, backupCmd, systemdCmd)
}

// Execute is the entry point called by main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if app != nil {
			app.log.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
