package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediaq/internal/client"
	"mediaq/internal/events"
	"mediaq/internal/queue"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var exitWhenIdle bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow queue events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				out := cmd.OutOrStdout()
				w := &eventPrinter{out: out, color: shouldColorize(out), json: ctx.jsonOutput()}
				err := c.Watch(cmd.Context(), func(frame events.Frame) error {
					idle, err := w.print(frame)
					if err != nil {
						return err
					}
					if exitWhenIdle && idle {
						return errStopWatching
					}
					return nil
				})
				if errors.Is(err, errStopWatching) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&exitWhenIdle, "until-idle", false, "Exit once the queue has no active or waiting jobs")
	return cmd
}

var errStopWatching = errors.New("watch finished")

type eventPrinter struct {
	out   io.Writer
	color bool
	json  bool
	seen  bool
}

// print writes one frame and reports whether the queue is idle after it.
// The first snapshot never counts as idle so --until-idle waits for work
// that was already queued.
func (p *eventPrinter) print(frame events.Frame) (bool, error) {
	if p.json {
		_, err := fmt.Fprintf(p.out, "{\"type\":%q,\"data\":%s}\n", frame.Type, frame.Data)
		if err != nil {
			return false, err
		}
	}

	switch frame.Type {
	case events.QueueUpdate:
		var snap queue.Snapshot
		if err := frame.Decode(&snap); err != nil {
			return false, fmt.Errorf("decode snapshot: %w", err)
		}
		first := !p.seen
		p.seen = true
		if !p.json {
			printSnapshot(p.out, snap)
		}
		idle := len(snap.Active) == 0 && len(snap.Waiting) == 0
		return idle && !first, nil
	case events.Progress:
		var ev queue.ProgressEvent
		if err := frame.Decode(&ev); err != nil {
			return false, fmt.Errorf("decode progress: %w", err)
		}
		if !p.json {
			fmt.Fprintf(p.out, "%s %s\n", ev.JobID, formatProgress(ev.Progress))
		}
	case events.JobCompleted:
		var ev queue.CompletedEvent
		if err := frame.Decode(&ev); err != nil {
			return false, fmt.Errorf("decode completion: %w", err)
		}
		if !p.json {
			fmt.Fprintf(p.out, "%s %s %s -> %s\n", ev.JobID, colorize("completed", ansiGreen, p.color), ev.Title, ev.Path)
		}
	case events.JobError:
		var ev queue.ErrorEvent
		if err := frame.Decode(&ev); err != nil {
			return false, fmt.Errorf("decode error: %w", err)
		}
		if !p.json {
			fmt.Fprintf(p.out, "%s %s %s: %s\n", ev.JobID, colorize("failed", ansiRed, p.color), ev.URL, ev.Error)
		}
	}
	return false, nil
}
