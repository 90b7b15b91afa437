package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"mediaq/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiDim    = "\x1b[2m"
)

const statusLabelWidth = 16

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(s, color string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + ansiReset
}

func jobStatusColor(status queue.Status) string {
	switch status {
	case queue.StatusDownloading:
		return ansiBlue
	case queue.StatusCompleted:
		return ansiGreen
	case queue.StatusFailed:
		return ansiRed
	case queue.StatusWaiting:
		return ansiDim
	default:
		return ""
	}
}

func historyStatusColor(status string) string {
	return jobStatusColor(queue.Status(status))
}

// renderField formats a "label: value" line for status output.
func renderField(label, value string) string {
	return fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", value)
}

func renderSectionHeader(title string, color bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return colorize(line, ansiBlue, color)
}

func formatProgress(progress float64) string {
	return fmt.Sprintf("%5.1f%%", progress)
}

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}
