package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/tui"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run every stage: env, up, wait and configure",
	Long: `Install checks the host, collects or reuses the .env record, provisions
directories and the proxy network, renders compose.yml and the Traefik
configuration, starts the stack, waits for Nextcloud to finish its first
start and applies the post-install settings.

A missing tool or a readiness timeout exits non-zero. Failed post-install
commands are reported and do not fail the run.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
	if err := app.pipeline.Run(cmd.Context()); err != nil {
		return err
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) || strings.EqualFold(app.cfg.Log.Format, "json") {
		return nil
	}

	rec, err := envfile.Read(app.layout.EnvFile)
	if err != nil {
		return nil
	}
	summary := tui.Summary{
		URL:       "https://" + rec.Get(envfile.Domain),
		Dir:       app.layout.Dir,
		AdminUser: rec.Get(envfile.AdminUser),
	}
	for _, f := range app.pipeline.Report.Failed {
		summary.Failed = append(summary.Failed, f.Step)
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Render())
	return nil
}
