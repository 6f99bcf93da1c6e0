package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomorrowflow/nextcloud-compose/internal/stack"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump the database into backups/",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b := &stack.Backup{Layout: app.layout, Runner: app.runner, Log: app.log}
		path, err := b.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var systemdEnable bool

var systemdCmd = &cobra.Command{
	Use:   "systemd",
	Short: "Write a systemd unit that starts the stack at boot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if systemdEnable && os.Geteuid() != 0 {
			return fmt.Errorf("%w: --enable needs root", stack.ErrPrecondition)
		}
		u := &stack.Unit{Layout: app.layout, Runner: app.runner, Log: app.log}
		return u.Install(cmd.Context(), systemdEnable)
	},
}

func init() {
	systemdCmd.Flags().BoolVar(&systemdEnable, "enable", false, "install into /etc/systemd/system and enable")
}
