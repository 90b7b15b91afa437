package worker

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line    string
		percent float64
		status  string
		ok      bool
	}{
		{"[download]  45.3% of ~ 10.00MiB at  1.20MiB/s ETA 00:05", 45.3, "of ~ 10.00MiB at 1.20MiB/s ETA 00:05", true},
		{"[download] 100% of 3.50MiB in 00:01", 100, "of 3.50MiB in 00:01", true},
		{"[download] Destination: /music/song.webm", 0, "", false},
		{"[ExtractAudio] Destination: /music/song.mp3", 0, "", false},
		{"50% done", 0, "", false},
	}
	for _, tt := range tests {
		percent, status, ok := ParseProgress(tt.line)
		if ok != tt.ok || percent != tt.percent || status != tt.status {
			t.Fatalf("ParseProgress(%q) = (%v, %q, %v), want (%v, %q, %v)", tt.line, percent, status, ok, tt.percent, tt.status, tt.ok)
		}
	}
}

func TestProgressTrackerIsMonotonic(t *testing.T) {
	var tracker progressTracker
	var recorded []float64
	for _, value := range []float64{30, 25, 60} {
		tracker.observe(value)
		recorded = append(recorded, tracker.last)
	}
	want := []float64{30, 30, 60}
	for i := range want {
		if recorded[i] != want[i] {
			t.Fatalf("recorded progress %v, want %v", recorded, want)
		}
	}
	if tracker.observe(60) {
		t.Fatal("equal value must not count as progress")
	}
}

func TestSplitLinesHandlesCarriageReturns(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\rb\n\nc"))
	scanner.Split(splitLines)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestTailBufferKeepsNewestRawBytes(t *testing.T) {
	buf := tailBuffer{limit: 11}
	if _, err := buf.Write([]byte("ERROR: first\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := buf.Write([]byte("10%\r20%\rok\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "10%\r20%\rok\n" {
		t.Fatalf("unexpected tail: %q", got)
	}
}
