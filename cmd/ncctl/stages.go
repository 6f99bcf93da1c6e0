package main

import (
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Collect the deployment settings into .env",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.pipeline.Env(cmd.Context())
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Provision the host, render the stack and start it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.pipeline.Up(cmd.Context())
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the first start to finish and the services to be healthy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.pipeline.Wait(cmd.Context())
	},
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Apply the post-install occ settings and PHP overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.pipeline.Reconfigure(cmd.Context())
	},
}
