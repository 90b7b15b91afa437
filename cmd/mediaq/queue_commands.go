package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mediaq/internal/api"
	"mediaq/internal/client"
	"mediaq/internal/queue"
	"mediaq/internal/textutil"
)

const queueTitleWidth = 48

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "List active and waiting downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				snap, err := c.Queue(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, snap)
				}
				printSnapshot(cmd.OutOrStdout(), *snap)
				return nil
			})
		},
	}
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	return queueCmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one queued or downloading job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				job, err := c.Job(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, job)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderField("ID", job.ID))
				fmt.Fprintln(out, renderField("Title", job.DisplayTitle()))
				fmt.Fprintln(out, renderField("URL", job.URL))
				fmt.Fprintln(out, renderField("Status", string(job.Status)))
				fmt.Fprintln(out, renderField("Progress", formatProgress(job.Progress)))
				fmt.Fprintln(out, renderField("Format", string(job.Format)))
				if job.GroupName != "" {
					fmt.Fprintln(out, renderField("Playlist", job.GroupName))
				}
				if job.StatusText != "" {
					fmt.Fprintln(out, renderField("Detail", job.StatusText))
				}
				return nil
			})
		},
	}
}

func newControlCommands(ctx *commandContext) []*cobra.Command {
	verbs := []struct {
		use    string
		short  string
		action string
	}{
		{"pause", "Stop admitting new downloads", api.ActionPause},
		{"resume", "Resume admitting downloads", api.ActionResume},
		{"cancel", "Kill active downloads and clear the queue", api.ActionCancelAll},
	}
	cmds := make([]*cobra.Command, 0, len(verbs))
	for _, verb := range verbs {
		cmds = append(cmds, &cobra.Command{
			Use:   verb.use,
			Short: verb.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(func(c *client.Client) error {
					resp, err := c.Action(cmd.Context(), verb.action)
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, resp)
					}
					printSnapshot(cmd.OutOrStdout(), resp.State)
					return nil
				})
			},
		})
	}
	return cmds
}

func printSnapshot(out io.Writer, snap queue.Snapshot) {
	color := shouldColorize(out)
	state := "running"
	if snap.Paused {
		state = colorize("paused", ansiYellow, color)
	}
	fmt.Fprintf(out, "Queue %s: %d active, %d waiting\n", state, len(snap.Active), len(snap.Waiting))
	if len(snap.Active) == 0 && len(snap.Waiting) == 0 {
		return
	}
	jobs := append(append([]queue.Job(nil), snap.Active...), snap.Waiting...)
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			colorize(string(job.Status), jobStatusColor(job.Status), color),
			formatProgress(job.Progress),
			string(job.Format),
			textutil.Truncate(job.DisplayTitle(), queueTitleWidth),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Progress", "Format", "Title"}, rows, 2))
}
