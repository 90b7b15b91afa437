package worker

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var progressPattern = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// ParseProgress extracts the percentage from a yt-dlp download line. The text
// following the percentage (size, speed, ETA) is returned as status.
func ParseProgress(line string) (percent float64, status string, ok bool) {
	loc := progressPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(line[loc[2]:loc[3]], 64)
	if err != nil {
		return 0, "", false
	}
	if value > 100 {
		value = 100
	}
	status = strings.Join(strings.Fields(line[loc[1]:]), " ")
	return value, status, true
}

// progressTracker suppresses non-increasing percentages. Workers restart
// their counter for each stream of a merged download.
type progressTracker struct {
	last float64
}

func (p *progressTracker) observe(percent float64) bool {
	if percent <= p.last {
		return false
	}
	p.last = percent
	return true
}

// splitLines is a bufio.SplitFunc that treats both \n and \r as terminators
// so carriage-return progress redraws are delivered as separate lines.
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// tailBuffer keeps the most recent bytes written to it. Writes are stored
// verbatim, so carriage-return redraws survive as written.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
