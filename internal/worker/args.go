package worker

import (
	"path/filepath"
	"strings"

	"mediaq/internal/textutil"
)

const outputNameTemplate = "%(title)s.%(ext)s"

// OutputDir resolves the directory files for req land in. A blank
// destination falls back to defaultDir and a non-empty group name adds a
// sanitized sub-directory.
func OutputDir(req Request, defaultDir string) string {
	dir := strings.TrimSpace(req.DestinationDir)
	if dir == "" {
		dir = defaultDir
	}
	if group := textutil.SanitizePathSegment(req.GroupName); group != "" {
		dir = filepath.Join(dir, group)
	}
	return dir
}

// BuildArgs assembles the worker command line for req.
func (s *Supervisor) BuildArgs(req Request, outputDir string) []string {
	args := []string{
		"--add-metadata",
		"-o", filepath.Join(outputDir, outputNameTemplate),
	}
	args = s.appendCommonArgs(args)
	args = append(args, "--newline")
	args = append(args, s.opts.ExtraArgs...)

	switch req.Format {
	case FormatVideo:
		args = append(args,
			"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			"--merge-output-format", "mp4",
		)
	default:
		args = append(args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", "0",
		)
	}
	return append(args, "--", req.URL)
}

func (s *Supervisor) probeArgs(url string) []string {
	args := []string{"--dump-single-json", "--flat-playlist"}
	args = s.appendCommonArgs(args)
	return append(args, "--", url)
}

func (s *Supervisor) appendCommonArgs(args []string) []string {
	if dir := strings.TrimSpace(s.opts.FFmpegLocation); dir != "" {
		args = append(args, "--ffmpeg-location", dir)
	}
	if runtime := strings.TrimSpace(s.opts.JSRuntime); runtime != "" {
		args = append(args, "--js-runtimes", runtime)
	}
	args = append(args, "--no-warnings")
	if s.opts.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	return args
}
