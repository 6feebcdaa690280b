package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Orchestrator walks an ordered strategy list per media kind and returns the
// first usable artifact. A bounded semaphore caps simultaneous downloads so a
// request burst cannot exhaust the host.
type Orchestrator struct {
	audio []Strategy
	video []Strategy

	maxBytes       int64
	attemptTimeout time.Duration
	sem            *semaphore.Weighted
}

// New creates an orchestrator over explicit strategy lists. maxBytes is the
// relay payload ceiling applied before any upload is attempted.
func New(audio, video []Strategy, maxBytes int64, maxConcurrent int, attemptTimeout time.Duration) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		audio:          audio,
		video:          video,
		maxBytes:       maxBytes,
		attemptTimeout: attemptTimeout,
		sem:            semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// NewDefault builds the production strategy chains: audio targets 192 kbps
// mp3, video targets the best rendition at or below 720p with explicit
// lower-resolution fallbacks as separate strategies.
func NewDefault(maxBytes int64, maxConcurrent int, attemptTimeout time.Duration) *Orchestrator {
	altClient := []string{"--extractor-args", "youtube:player_client=android"}

	audio := []Strategy{
		&ytdlpStrategy{
			name:         "audio-best-192k",
			format:       "bestaudio/best",
			extractAudio: true,
			audioQuality: "192K",
		},
		&ytdlpStrategy{
			name:         "audio-alt-client-192k",
			format:       "bestaudio/best",
			extractAudio: true,
			audioQuality: "192K",
			extraArgs:    altClient,
		},
		&ytdlpStrategy{
			name:         "audio-reduced-128k",
			format:       "bestaudio/best",
			extractAudio: true,
			audioQuality: "128K",
		},
	}
	video := []Strategy{
		&ytdlpStrategy{
			name:   "video-720p",
			format: "best[height<=720][ext=mp4]/best[height<=720]",
		},
		&ytdlpStrategy{
			name:      "video-720p-alt-client",
			format:    "best[height<=720][ext=mp4]/best[height<=720]",
			extraArgs: altClient,
		},
		&ytdlpStrategy{
			name:   "video-480p",
			format: "best[height<=480]",
		},
		&ytdlpStrategy{
			name:   "video-360p",
			format: "best[height<=360]",
		},
	}
	return New(audio, video, maxBytes, maxConcurrent, attemptTimeout)
}

// Acquire tries each strategy for the kind in order, terminal on the first
// usable artifact. A strategy that fails is never re-run within the request.
// When every strategy fails the aggregate ExhaustedError carries the last
// underlying error.
func (o *Orchestrator) Acquire(ctx context.Context, locator string, kind models.MediaKind) (*Artifact, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquisition slot: %w", err)
	}
	defer o.sem.Release(1)

	strategies := o.audio
	if kind == models.KindVideo {
		strategies = o.video
	}

	log := logrus.WithFields(logrus.Fields{
		"locator": locator,
		"kind":    kind,
	})

	var last error
	for _, strat := range strategies {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if o.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		}
		art, err := strat.Attempt(attemptCtx, locator)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			err = o.usable(art)
		}
		if err == nil {
			log.WithField("strategy", strat.Name()).Info("Acquisition succeeded")
			return art, nil
		}

		entry := log.WithField("strategy", strat.Name()).WithError(err)
		if errors.Is(err, ErrArtifactMissing) {
			// Strategy claimed success without a file. Bug-shaped, so louder.
			entry.Error("Strategy produced no artifact")
		} else {
			entry.Warn("Strategy failed, falling through")
		}
		last = err
	}

	return nil, &ExhaustedError{Attempts: len(strategies), Last: last}
}

// usable enforces the artifact preconditions: non-empty file within the relay
// payload ceiling. Violations release the artifact immediately.
func (o *Orchestrator) usable(art *Artifact) error {
	if art == nil || art.FilePath == "" || art.SizeBytes == 0 {
		if art != nil {
			art.Cleanup()
		}
		return ErrArtifactMissing
	}
	if o.maxBytes > 0 && art.SizeBytes > o.maxBytes {
		art.Cleanup()
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, art.SizeBytes, o.maxBytes)
	}
	return nil
}
