package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediaq/internal/api"
	"mediaq/internal/client"
	"mediaq/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return ctx.withClient(func(c *client.Client) error {
				entries, err := c.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.HistoryResponse{Entries: entries})
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No finished downloads recorded")
					return nil
				}
				color := shouldColorize(out)
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					detail := entry.Path
					if entry.Status != "completed" {
						detail = entry.Error
					}
					title := entry.Title
					if title == "" {
						title = entry.URL
					}
					rows = append(rows, []string{
						strconv.FormatInt(entry.ID, 10),
						finishedAgo(entry.FinishedAt),
						colorize(entry.Status, historyStatusColor(entry.Status), color),
						textutil.Truncate(title, queueTitleWidth),
						textutil.Truncate(detail, 60),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Finished", "Status", "Title", "Path / Error"}, rows, 0))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func finishedAgo(stamp string) string {
	if stamp == "" {
		return "-"
	}
	parsed, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return stamp
	}
	return humanize.Time(parsed)
}
