package main

import (
	"github.com/spf13/cobra"

	"mediaq/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var debug bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the download daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: debug,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&debug, "debug", false, "Also write a debug-level JSON log under <log_dir>/debug")
	return cmd
}
