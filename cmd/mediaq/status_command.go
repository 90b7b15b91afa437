package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediaq/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue and dependency status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withClient(func(c *client.Client) error {
				status, err := c.Status(cmd.Context())
				if errors.Is(err, client.ErrDaemonUnavailable) && !ctx.jsonOutput() {
					fmt.Fprintln(out, renderField("Daemon", colorize("not running", ansiRed, shouldColorize(out))))
					return nil
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}

				color := shouldColorize(out)
				fmt.Fprintln(out, renderSectionHeader("Daemon", color))
				fmt.Fprintln(out, renderField("Running", yesNo(status.Running)))
				fmt.Fprintln(out, renderField("PID", strconv.Itoa(status.PID)))
				if status.StartedAt != "" {
					fmt.Fprintln(out, renderField("Started", finishedAgo(status.StartedAt)))
				}
				fmt.Fprintln(out, renderField("Log", status.LogPath))
				if status.HistoryPath != "" {
					fmt.Fprintln(out, renderField("History", status.HistoryPath))
				}
				fmt.Fprintln(out, renderField("Subscribers", strconv.Itoa(status.Subscribers)))

				fmt.Fprintln(out, renderSectionHeader("Queue", color))
				fmt.Fprintln(out, renderField("Paused", yesNo(status.Queue.Paused)))
				fmt.Fprintln(out, renderField("Active", fmt.Sprintf("%d / %d", status.Queue.Active, status.Queue.Concurrency)))
				fmt.Fprintln(out, renderField("Waiting", strconv.Itoa(status.Queue.Waiting)))
				fmt.Fprintln(out, renderField("Completed", strconv.Itoa(status.Stats.Completed)))
				fmt.Fprintln(out, renderField("Failed", strconv.Itoa(status.Stats.Failed+status.Stats.SpawnFailures)))
				fmt.Fprintln(out, renderField("Cancelled", strconv.Itoa(status.Stats.Cancelled)))

				fmt.Fprintln(out, renderSectionHeader("Storage", color))
				fmt.Fprintln(out, renderField("Download dir", status.DownloadDir))
				if status.FreeBytes > 0 {
					fmt.Fprintln(out, renderField("Free space", formatBytes(status.FreeBytes)))
				}

				fmt.Fprintln(out, renderSectionHeader("Dependencies", color))
				for _, dep := range status.Dependencies {
					state := colorize("available", ansiGreen, color)
					if !dep.Available {
						state = colorize("missing", ansiRed, color)
						if dep.Optional {
							state = colorize("missing (optional)", ansiYellow, color)
						}
					}
					fmt.Fprintln(out, renderField(dep.Name, state+" "+dep.Command))
				}
				return nil
			})
		},
	}
}
