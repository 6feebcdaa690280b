package acquire

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// stubStrategy records whether it ran and returns a fixed result.
type stubStrategy struct {
	name string
	art  *Artifact
	err  error

	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(ctx context.Context, locator string) (*Artifact, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	// Return a copy so Cleanup on one attempt does not bleed into another.
	cp := *s.art
	return &cp, nil
}

func goodArtifact(size int64) *Artifact {
	return &Artifact{
		FilePath:  "/tmp/fake/media.mp3",
		Title:     "Test",
		SizeBytes: size,
	}
}

func newTestOrchestrator(audio []Strategy, maxBytes int64) *Orchestrator {
	return New(audio, nil, maxBytes, 4, time.Minute)
}

func TestAcquireFirstStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "first", art: goodArtifact(1024)}
	second := &stubStrategy{name: "second", art: goodArtifact(1024)}
	o := newTestOrchestrator([]Strategy{first, second}, 0)

	art, err := o.Acquire(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, "Test", art.Title)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "later strategies must not run after a success")
}

func TestAcquireFallsThroughInOrder(t *testing.T) {
	first := &stubStrategy{name: "first", err: ErrExtractionFailed}
	second := &stubStrategy{name: "second", err: ErrExtractionFailed}
	third := &stubStrategy{name: "third", art: goodArtifact(1024)}
	o := newTestOrchestrator([]Strategy{first, second, third}, 0)

	_, err := o.Acquire(context.Background(), "loc", models.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
}

func TestAcquireExhaustedCarriesLastError(t *testing.T) {
	wrapped := errors.New("http 403")
	first := &stubStrategy{name: "first", err: ErrExtractionFailed}
	second := &stubStrategy{name: "second", err: wrapped}
	o := newTestOrchestrator([]Strategy{first, second}, 0)

	_, err := o.Acquire(context.Background(), "loc", models.KindAudio)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.ErrorIs(t, err, wrapped)
}

func TestAcquireOversizedArtifactFailsStrategy(t *testing.T) {
	big := &stubStrategy{name: "big", art: goodArtifact(100 * 1024 * 1024)}
	small := &stubStrategy{name: "small", art: goodArtifact(10 * 1024 * 1024)}
	o := newTestOrchestrator([]Strategy{big, small}, 50*1024*1024)

	art, err := o.Acquire(context.Background(), "loc", models.KindAudio)
	require.NoError(t, err, "a smaller rendition should rescue the request")
	assert.Equal(t, int64(10*1024*1024), art.SizeBytes)
}

func TestAcquireAllOversizedReportsTooLarge(t *testing.T) {
	big := &stubStrategy{name: "big", art: goodArtifact(100 * 1024 * 1024)}
	o := newTestOrchestrator([]Strategy{big}, 50*1024*1024)

	_, err := o.Acquire(context.Background(), "loc", models.KindAudio)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAcquireEmptyArtifactIsMissing(t *testing.T) {
	empty := &stubStrategy{name: "empty", art: &Artifact{FilePath: "/tmp/x", SizeBytes: 0}}
	o := newTestOrchestrator([]Strategy{empty}, 0)

	_, err := o.Acquire(context.Background(), "loc", models.KindAudio)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestAcquireVideoUsesVideoChain(t *testing.T) {
	audio := &stubStrategy{name: "audio", art: goodArtifact(1)}
	video := &stubStrategy{name: "video", art: goodArtifact(2)}
	o := New([]Strategy{audio}, []Strategy{video}, 0, 4, time.Minute)

	art, err := o.Acquire(context.Background(), "loc", models.KindVideo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), art.SizeBytes)
	assert.Zero(t, audio.calls)
}

func TestAcquireCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strat := &stubStrategy{name: "never", art: goodArtifact(1)}
	o := newTestOrchestrator([]Strategy{strat}, 0)

	_, err := o.Acquire(ctx, "loc", models.KindAudio)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, strat.calls)
}

func TestArtifactCleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	art := &Artifact{FilePath: dir + "/f.mp3", tmpDir: dir}

	art.Cleanup()
	assert.NoDirExists(t, dir)

	// Second call is a no-op.
	art.Cleanup()
}
