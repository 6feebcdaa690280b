package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ytdlpStrategy shells out to yt-dlp with one fixed option profile. Each
// fallback step in the chain is its own strategy rather than a mutation of a
// shared option set.
type ytdlpStrategy struct {
	name string
	// format is the yt-dlp -f selector.
	format string
	// extractAudio converts the download to mp3 at audioQuality.
	extractAudio bool
	audioQuality string
	// extraArgs carries per-strategy additions such as an alternate player
	// client profile.
	extraArgs []string
}

func (s *ytdlpStrategy) Name() string {
	return s.name
}

// Attempt runs yt-dlp into a fresh temp directory and returns the resulting
// artifact. The temp directory is removed on every failure path; on success
// ownership passes to the returned Artifact.
func (s *ytdlpStrategy) Attempt(ctx context.Context, locator string) (*Artifact, error) {
	tmpDir, err := os.MkdirTemp("", "taitanx_dl_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	outTemplate := filepath.Join(tmpDir, "%(id)s.%(ext)s")
	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--no-check-certificates",
		"--restrict-filenames",
		"--socket-timeout", "30",
		"--retries", "3",
		"--user-agent", desktopUserAgent,
		"-o", outTemplate,
		// One tab-separated line after all moves/merges are done.
		"--print", "after_move:%(filepath)s\t%(title)s\t%(duration)s\t%(resolution)s",
	}
	if s.format != "" {
		args = append(args, "-f", s.format)
	}
	if s.extractAudio {
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", s.audioQuality)
	}
	args = append(args, s.extraArgs...)
	args = append(args, locator)

	log := logrus.WithField("strategy", s.name)
	log.WithField("locator", locator).Debug("Running yt-dlp")

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		reason := firstLine(stderr.String())
		if reason == "" {
			reason = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, reason)
	}

	art := parsePrinted(stdout.String())
	art.tmpDir = tmpDir

	// yt-dlp occasionally prints a pre-postprocessing path; fall back to
	// scanning the private temp dir.
	if art.FilePath == "" || !fileExists(art.FilePath) {
		art.FilePath = findFirstFile(tmpDir)
	}
	if art.FilePath == "" {
		art.Cleanup()
		return nil, ErrArtifactMissing
	}

	info, err := os.Stat(art.FilePath)
	if err != nil || info.Size() == 0 {
		art.Cleanup()
		return nil, ErrArtifactMissing
	}
	art.SizeBytes = info.Size()

	log.WithFields(logrus.Fields{
		"path":  art.FilePath,
		"bytes": art.SizeBytes,
	}).Info("Artifact downloaded")
	return art, nil
}

// parsePrinted splits the --print line into an Artifact. Missing fields stay
// at their zero values; the file itself is validated separately.
func parsePrinted(out string) *Artifact {
	art := &Artifact{Title: "Unknown"}
	line := lastLine(out)
	if line == "" {
		return art
	}
	parts := strings.Split(line, "\t")
	if len(parts) > 0 {
		art.FilePath = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 && parts[1] != "" && parts[1] != "NA" {
		art.Title = parts[1]
	}
	if len(parts) > 2 {
		if d, err := strconv.ParseFloat(parts[2], 64); err == nil {
			art.DurationSeconds = int(d)
		}
	}
	if len(parts) > 3 && parts[3] != "" && parts[3] != "NA" {
		art.Quality = parts[3]
	}
	return art
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
