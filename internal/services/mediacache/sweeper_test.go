package mediacache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

func TestSweepRemovesOnlyExpired(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestCache(store, 24*time.Hour, now)

	store.Upsert(models.KindAudio, &models.CacheEntry{ContentID: "old00000000", CreatedAt: now.Add(-25 * time.Hour)})
	store.Upsert(models.KindAudio, &models.CacheEntry{ContentID: "fresh000000", CreatedAt: now.Add(-time.Hour)})
	store.Upsert(models.KindVideo, &models.CacheEntry{ContentID: "old00000000", CreatedAt: now.Add(-30 * time.Hour)})

	w := NewSweeper(s, time.Hour)
	w.sweep()

	audio, err := store.Count(models.KindAudio)
	require.NoError(t, err)
	video, err := store.Count(models.KindVideo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), audio)
	assert.Zero(t, video)
}

func TestSweeperStartStop(t *testing.T) {
	store := newFakeStore()
	s := newTestCache(store, 24*time.Hour, time.Now())

	w := NewSweeper(s, time.Hour)
	w.Start()
	w.Stop()
}
