package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the trackapi command tree. Running the root command
// without a subcommand starts the HTTP server.
func newRootCmd() *cobra.Command {
	var port string

	rootCmd := &cobra.Command{
		Use:           "trackapi",
		Short:         "Tracking API echo server",
		Long:          "trackapi accepts JSON events under /v1/{type} and echoes them back. POST /v1/batch answers 501.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")

	rootCmd.AddCommand(newServeCmd(&port))
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}

func newServeCmd(port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *port)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the capture tables in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}
