package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is how many trailing lines to emit first. Zero starts at the end.
	Lines int
	// Follow keeps reading appended lines until ctx ends.
	Follow bool
	// Poll is the follow interval; zero uses 250ms.
	Poll time.Duration
}

// Tail emits the last lines of path and, when following, every line appended
// afterwards. A missing file is waited for while following and is an error
// otherwise. Tail returns nil when ctx ends.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(string) error) error {
	offset, err := emitLast(path, opts.Lines, emit)
	if err != nil && !(opts.Follow && errors.Is(err, os.ErrNotExist)) {
		return err
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var identity os.FileInfo
	if info, statErr := os.Stat(path); statErr == nil {
		identity = info
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		// A new run repoints the file; a truncated file restarts too.
		if identity == nil || !os.SameFile(identity, info) || info.Size() < offset {
			identity = info
			offset = 0
		}
		if info.Size() == offset {
			continue
		}
		offset, err = emitFrom(path, offset, emit)
		if err != nil {
			return err
		}
	}
}

// emitLast writes the last n lines and returns the end offset.
func emitLast(path string, n int, emit func(string) error) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, 0, max(n, 0))
	scanner := newScanner(file)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log: %w", err)
	}
	for _, line := range ring {
		if err := emit(line); err != nil {
			return 0, err
		}
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("log offset: %w", err)
	}
	return end, nil
}

// emitFrom writes complete lines after offset. A trailing partial line is
// left for the next poll.
func emitFrom(path string, offset int64, emit func(string) error) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return offset, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log: %w", err)
		}
		offset += int64(len(line))
		if err := emit(line[:len(line)-1]); err != nil {
			return offset, err
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
