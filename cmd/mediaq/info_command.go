package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediaq/internal/client"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show title and playlist entries for a URL without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				info, err := c.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderField("Title", info.Title))
				if !info.IsPlaylist {
					fmt.Fprintln(out, renderField("Type", "single video"))
					return nil
				}
				fmt.Fprintln(out, renderField("Type", "playlist"))
				fmt.Fprintln(out, renderField("Videos", strconv.Itoa(info.VideoCount)))
				rows := make([][]string, 0, len(info.Entries))
				for i, entry := range info.Entries {
					rows = append(rows, []string{strconv.Itoa(i + 1), entry.Title, entry.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Title", "URL"}, rows, 0))
				return nil
			})
		},
	}
}
