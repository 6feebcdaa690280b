// Package acquire turns a content locator into a local media artifact by
// trying an ordered list of acquisition strategies until one produces a
// usable file.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Failure taxonomy surfaced to callers.
var (
	// ErrExtractionFailed: no playable stream could be resolved for the
	// locator (deleted, geo-blocked, age-restricted, ...).
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrArtifactMissing: a strategy reported success but no non-empty file
	// materialized. Logged distinctly because it indicates a bug, not bad input.
	ErrArtifactMissing = errors.New("downloaded artifact missing")
	// ErrTooLarge: the artifact exceeds the relay's payload ceiling and must
	// not be uploaded.
	ErrTooLarge = errors.New("artifact exceeds upload size limit")
)

// ExhaustedError aggregates a fully failed fallback chain. The last
// underlying error is kept for diagnostics and unwrapping.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d acquisition strategies exhausted: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Artifact is the transient result of one successful acquisition. It lives in
// a private temp directory; the caller must invoke Cleanup on every exit path
// once the file has been consumed.
type Artifact struct {
	FilePath        string
	Title           string
	DurationSeconds int
	Quality         string
	SizeBytes       int64

	tmpDir string
}

// Cleanup deletes the artifact and its temp directory. Safe to call more than
// once.
func (a *Artifact) Cleanup() {
	if a == nil || a.tmpDir == "" {
		return
	}
	if err := os.RemoveAll(a.tmpDir); err != nil {
		logrus.WithError(err).WithField("dir", a.tmpDir).Warn("Failed to clean up artifact dir")
	}
	a.tmpDir = ""
}

// Strategy is one concrete technique for acquiring a playable artifact.
// Transient transport errors are a strategy's own business (bounded retries
// inside Attempt); the orchestrator never re-runs a failed strategy within a
// request.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, locator string) (*Artifact, error)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findFirstFile returns the first regular file in dir, skipping partial
// downloads.
func findFirstFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) != ".part" {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
