package mediacache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// fakeStore is an in-memory Store keyed by kind and content id.
type fakeStore struct {
	entries map[models.MediaKind]map[string]*models.CacheEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[models.MediaKind]map[string]*models.CacheEntry{
		models.KindAudio: {},
		models.KindVideo: {},
	}}
}

func (f *fakeStore) Get(kind models.MediaKind, contentID string) (*models.CacheEntry, error) {
	e, ok := f.entries[kind][contentID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Upsert(kind models.MediaKind, entry *models.CacheEntry) error {
	cp := *entry
	f.entries[kind][entry.ContentID] = &cp
	return nil
}

func (f *fakeStore) Delete(kind models.MediaKind, contentID string) (bool, error) {
	if _, ok := f.entries[kind][contentID]; !ok {
		return false, nil
	}
	delete(f.entries[kind], contentID)
	return true, nil
}

func (f *fakeStore) Count(kind models.MediaKind) (int64, error) {
	return int64(len(f.entries[kind])), nil
}

func (f *fakeStore) DeleteExpired(kind models.MediaKind, before time.Time) (int64, error) {
	var n int64
	for id, e := range f.entries[kind] {
		if e.CreatedAt.Before(before) {
			delete(f.entries[kind], id)
			n++
		}
	}
	return n, nil
}

func testResponse(title string) *models.DeliveryResponse {
	return &models.DeliveryResponse{
		Status: true,
		Type:   "audio",
		Result: models.DeliveryResult{
			Title:    title,
			Duration: "PT3M14S",
			Quality:  "192kbps",
			URL:      "https://api.telegram.org/file/bot123/music/file.mp3",
			FileID:   "file123",
		},
	}
}

func newTestCache(store Store, ttl time.Duration, at time.Time) *Service {
	s := NewService(store, ttl)
	s.now = func() time.Time { return at }
	return s
}

func TestCacheRoundTrip(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestCache(store, 24*time.Hour, now)

	id := ContentID("dQw4w9WgXcQ")
	s.Put(id, models.KindAudio, testResponse("Test Song"))

	got := s.Get(id, models.KindAudio)
	require.NotNil(t, got)
	assert.Equal(t, "Test Song", got.Result.Title)
	assert.Equal(t, "192kbps", got.Result.Quality)

	// The video table is independent.
	assert.Nil(t, s.Get(id, models.KindVideo))
}

func TestCacheReadWindow(t *testing.T) {
	store := newFakeStore()
	wrote := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	s := newTestCache(store, 24*time.Hour, wrote)
	id := ContentID("dQw4w9WgXcQ")
	s.Put(id, models.KindAudio, testResponse("Test Song"))

	// Just inside the 23h effective window.
	s.now = func() time.Time { return wrote.Add(23*time.Hour - time.Minute) }
	assert.NotNil(t, s.Get(id, models.KindAudio))

	// At the window boundary the entry is stale even though the row still
	// exists for another hour.
	s.now = func() time.Time { return wrote.Add(23 * time.Hour) }
	assert.Nil(t, s.Get(id, models.KindAudio))
}

func TestCacheRefreshOnWrite(t *testing.T) {
	store := newFakeStore()
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestCache(store, 24*time.Hour, first)

	id := ContentID("dQw4w9WgXcQ")
	s.Put(id, models.KindAudio, testResponse("v1"))

	// Rewrite 20 hours later resets the entry age.
	second := first.Add(20 * time.Hour)
	s.now = func() time.Time { return second }
	s.Put(id, models.KindAudio, testResponse("v2"))

	s.now = func() time.Time { return second.Add(22 * time.Hour) }
	got := s.Get(id, models.KindAudio)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.Result.Title)
}

func TestCacheSkipsNonCacheable(t *testing.T) {
	store := newFakeStore()
	s := newTestCache(store, 24*time.Hour, time.Now())

	s.Put(UnknownContentID, models.KindAudio, testResponse("x"))
	s.Put(ContentID("search_abc123"), models.KindAudio, testResponse("x"))

	n, err := store.Count(models.KindAudio)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheInvalidate(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	s := newTestCache(store, 24*time.Hour, now)

	id := ContentID("dQw4w9WgXcQ")
	s.Put(id, models.KindAudio, testResponse("x"))

	audio, video := s.Invalidate(id)
	assert.True(t, audio)
	assert.False(t, video)

	audio, video = s.Invalidate(id)
	assert.False(t, audio)
	assert.False(t, video)
}

func TestCacheStats(t *testing.T) {
	store := newFakeStore()
	s := newTestCache(store, 24*time.Hour, time.Now())

	s.Put(ContentID("aaaaaaaaaa1"), models.KindAudio, testResponse("a"))
	s.Put(ContentID("bbbbbbbbbb2"), models.KindAudio, testResponse("b"))
	s.Put(ContentID("aaaaaaaaaa1"), models.KindVideo, testResponse("a"))

	audio, video, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), audio)
	assert.Equal(t, int64(1), video)
}
