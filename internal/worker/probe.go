package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediaq/internal/logging"
)

const defaultProbeTimeout = 60 * time.Second

// MediaInfo summarizes a URL before it is queued.
type MediaInfo struct {
	Title      string       `json:"title"`
	IsPlaylist bool         `json:"isPlaylist"`
	VideoCount int          `json:"videoCount"`
	Entries    []MediaEntry `json:"entries"`
}

// MediaEntry is one downloadable item inside a MediaInfo.
type MediaEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type probeDocument struct {
	Type       string `json:"_type"`
	ID         string `json:"id"`
	Title      string `json:"title"`
	WebpageURL string `json:"webpage_url"`
	Entries    []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"entries"`
}

// Probe asks the worker for flat metadata about url without downloading.
func (s *Supervisor) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("probe: url is required")
	}
	binary, err := exec.LookPath(s.opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoBinary, s.opts.Binary, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultProbeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, s.probeArgs(url)...)
	configureProcess(cmd)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = s.opts.WaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		s.logger.Warn("metadata probe failed",
			logging.String("url", url),
			logging.Error(err),
			logging.String("stderr", detail),
			logging.String(logging.FieldEventType, "probe_failed"),
			logging.String(logging.FieldErrorHint, "verify the URL is public and the worker binary is current"),
			logging.String(logging.FieldImpact, "media info unavailable for this URL"),
		)
		if detail != "" {
			return nil, fmt.Errorf("probe %s: %w: %s", url, err, detail)
		}
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	info, err := parseProbe(stdout.Bytes(), url)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("metadata probe complete",
		logging.String("url", url),
		logging.Bool("playlist", info.IsPlaylist),
		logging.Int("entries", info.VideoCount),
		logging.Duration("elapsed", time.Since(started)),
	)
	return info, nil
}

func parseProbe(data []byte, requested string) (*MediaInfo, error) {
	var doc probeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	info := &MediaInfo{Title: doc.Title}
	if doc.Type == "playlist" {
		info.IsPlaylist = true
		info.Entries = make([]MediaEntry, 0, len(doc.Entries))
		for _, entry := range doc.Entries {
			url := strings.TrimSpace(entry.URL)
			if url == "" {
				url = "https://www.youtube.com/watch?v=" + entry.ID
			}
			info.Entries = append(info.Entries, MediaEntry{ID: entry.ID, Title: entry.Title, URL: url})
		}
		info.VideoCount = len(info.Entries)
		return info, nil
	}

	url := strings.TrimSpace(doc.WebpageURL)
	if url == "" {
		url = requested
	}
	info.VideoCount = 1
	info.Entries = []MediaEntry{{ID: doc.ID, Title: doc.Title, URL: url}}
	return info, nil
}
