package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mediaq/internal/api"
	"mediaq/internal/client"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		format    string
		dir       string
		playlist  string
		listPath  string
		fromProbe bool
	)

	cmd := &cobra.Command{
		Use:   "add [url...]",
		Short: "Queue one or more URLs for download",
		Long: `Queue URLs for download.

URLs may be given as arguments or read from a file with --file (one per line,
optionally followed by a tab and a title; "-" reads stdin). --playlist groups
the downloads into a subdirectory of the download directory. --expand probes
the first URL and queues every entry of the playlist it names.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]api.AddItem, 0, len(args))
			for _, arg := range args {
				items = append(items, api.AddItem{URL: arg})
			}
			if listPath != "" {
				fromFile, err := readItemList(cmd.InOrStdin(), listPath)
				if err != nil {
					return err
				}
				items = append(items, fromFile...)
			}
			if len(items) == 0 {
				return errors.New("at least one URL is required")
			}
			if title != "" {
				if len(items) != 1 {
					return errors.New("--title applies to a single URL")
				}
				items[0].Title = title
			}

			return ctx.withClient(func(c *client.Client) error {
				if fromProbe {
					expanded, group, err := expandPlaylist(cmd, c, items)
					if err != nil {
						return err
					}
					items = expanded
					if playlist == "" {
						playlist = group
					}
				}
				resp, err := c.Add(cmd.Context(), api.AddRequest{
					Items:         items,
					DownloadPath:  dir,
					PlaylistTitle: playlist,
					Format:        format,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %d download(s)\n", resp.Count)
				for _, id := range resp.JobIDs {
					fmt.Fprintf(out, "  %s\n", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title for a single URL")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: audio or video (default audio)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to paths.download_dir)")
	cmd.Flags().StringVarP(&playlist, "playlist", "p", "", "Group downloads under this subdirectory")
	cmd.Flags().StringVar(&listPath, "file", "", "Read URLs from a file, one per line")
	cmd.Flags().BoolVar(&fromProbe, "expand", false, "Probe the first URL and queue every playlist entry")
	return cmd
}

// readItemList parses "<url>[\t<title>]" lines. Blank lines and lines
// starting with # are skipped.
func readItemList(stdin io.Reader, path string) ([]api.AddItem, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open url list: %w", err)
		}
		defer file.Close()
		r = file
	}

	var items []api.AddItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		url, title, _ := strings.Cut(line, "\t")
		items = append(items, api.AddItem{URL: strings.TrimSpace(url), Title: strings.TrimSpace(title)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return items, nil
}

func expandPlaylist(cmd *cobra.Command, c *client.Client, items []api.AddItem) ([]api.AddItem, string, error) {
	info, err := c.Info(cmd.Context(), items[0].URL)
	if err != nil {
		return nil, "", fmt.Errorf("probe %s: %w", items[0].URL, err)
	}
	if !info.IsPlaylist || len(info.Entries) == 0 {
		if items[0].Title == "" {
			items[0].Title = info.Title
		}
		return items, "", nil
	}
	expanded := make([]api.AddItem, 0, len(info.Entries))
	for _, entry := range info.Entries {
		expanded = append(expanded, api.AddItem{URL: entry.URL, Title: entry.Title})
	}
	return expanded, info.Title, nil
}
