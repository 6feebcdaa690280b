package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/acquire"
	"github.com/taitanx/media-delivery-backend/internal/services/delivery"
	"github.com/taitanx/media-delivery-backend/internal/services/mediacache"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
	"github.com/taitanx/media-delivery-backend/internal/services/relay"
)

type stubQuota struct {
	err error
}

func (s *stubQuota) Validate(token string) (*models.APIKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.APIKey{Key: token, UserID: "u1", Tier: models.TierStandard, IsActive: true}, nil
}

func (s *stubQuota) Credit(token string) error { return nil }

type stubCache struct{}

func (stubCache) Get(id mediacache.ContentID, kind models.MediaKind) *models.DeliveryResponse {
	return nil
}
func (stubCache) Put(id mediacache.ContentID, kind models.MediaKind, resp *models.DeliveryResponse) {
}

type stubAcquirer struct{}

func (stubAcquirer) Acquire(ctx context.Context, locator string, kind models.MediaKind) (*acquire.Artifact, error) {
	return &acquire.Artifact{FilePath: "/tmp/x.mp3", Title: "Song", DurationSeconds: 60, SizeBytes: 1}, nil
}

type stubRelayer struct{}

func (stubRelayer) Relay(ctx context.Context, art *acquire.Artifact, kind models.MediaKind) (*relay.Result, error) {
	return &relay.Result{URL: "https://api.telegram.org/file/bot1/x.mp3", FileID: "f1", MessageID: 7}, nil
}

type stubLedger struct{}

func (stubLedger) Create(record *models.RequestRecord) error { return nil }

func newTestRouter(q *stubQuota) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := delivery.NewService(q, stubCache{}, stubAcquirer{}, stubRelayer{}, stubLedger{}, nil)
	h := NewMediaHandler(svc)

	r := gin.New()
	r.GET("/audio", h.Audio)
	r.GET("/video", h.Video)
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, models.DeliveryResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var resp models.DeliveryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestAudioMissingAPIKey(t *testing.T) {
	r := newTestRouter(&stubQuota{})

	w, resp := doGet(t, r, "/audio?url=https://youtu.be/dQw4w9WgXcQ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Status)
	assert.Equal(t, "Missing api_key parameter", resp.Error)
}

func TestAudioInvalidKey(t *testing.T) {
	r := newTestRouter(&stubQuota{err: quota.ErrKeyNotFound})

	w, resp := doGet(t, r, "/audio?url=https://youtu.be/dQw4w9WgXcQ&api_key=bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Status)
	assert.Equal(t, "invalid API key", resp.Error)
}

func TestAudioSuccess(t *testing.T) {
	r := newTestRouter(&stubQuota{})

	w, resp := doGet(t, r, "/audio?url=https://youtu.be/dQw4w9WgXcQ&api_key=TaitanGOOD01")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)
	assert.Equal(t, "Audio", resp.Type)
	assert.Equal(t, "Song", resp.Result.Title)
	assert.Equal(t, "PT1M", resp.Result.Duration)
}

func TestVideoMissingLocator(t *testing.T) {
	r := newTestRouter(&stubQuota{})

	w, resp := doGet(t, r, "/video?api_key=TaitanGOOD01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Status)
	assert.Equal(t, "Missing url or name parameter", resp.Error)
}

// cache handler wiring

type memStore struct {
	entries map[string]*models.CacheEntry
}

func (m *memStore) key(kind models.MediaKind, id string) string { return string(kind) + "|" + id }

func (m *memStore) Get(kind models.MediaKind, contentID string) (*models.CacheEntry, error) {
	return m.entries[m.key(kind, contentID)], nil
}

func (m *memStore) Upsert(kind models.MediaKind, entry *models.CacheEntry) error {
	m.entries[m.key(kind, entry.ContentID)] = entry
	return nil
}

func (m *memStore) Delete(kind models.MediaKind, contentID string) (bool, error) {
	k := m.key(kind, contentID)
	if _, ok := m.entries[k]; !ok {
		return false, nil
	}
	delete(m.entries, k)
	return true, nil
}

func (m *memStore) Count(kind models.MediaKind) (int64, error) {
	var n int64
	for k := range m.entries {
		if k[:len(string(kind))] == string(kind) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteExpired(kind models.MediaKind, before time.Time) (int64, error) {
	return 0, nil
}

func TestCacheClearEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &memStore{entries: map[string]*models.CacheEntry{}}
	cacheSvc := mediacache.NewService(store, 24*time.Hour)
	cacheSvc.Put(mediacache.ContentID("dQw4w9WgXcQ"), models.KindAudio, &models.DeliveryResponse{Status: true})

	h := NewCacheHandler(cacheSvc)
	r := gin.New()
	r.DELETE("/cache/:content_id", h.Clear)
	r.GET("/cache/stats", h.Stats)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cache/dQw4w9WgXcQ", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["audio_cache_deleted"])
	assert.Equal(t, false, body["video_cache_deleted"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total_entries"])
}
