// Package mediacache maps canonical content identities to previously produced
// delivery responses with a rolling time-to-live.
package mediacache

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Store is the persistence surface the cache needs. Implemented by
// repository.MediaCacheRepository.
type Store interface {
	Get(kind models.MediaKind, contentID string) (*models.CacheEntry, error)
	Upsert(kind models.MediaKind, entry *models.CacheEntry) error
	Delete(kind models.MediaKind, contentID string) (bool, error)
	Count(kind models.MediaKind) (int64, error)
	DeleteExpired(kind models.MediaKind, before time.Time) (int64, error)
}

// Service is the content cache.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a content cache with the given TTL (entry age limit
// counted from acquisition, not last access).
func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// readWindow is the effective TTL applied at read time. It is one hour short
// of the storage TTL so an entry is never served moments before it would be
// evicted mid-transit.
func (s *Service) readWindow() time.Duration {
	if s.ttl <= time.Hour {
		return s.ttl
	}
	return s.ttl - time.Hour
}

// Get returns the cached response for an identity, or nil when the identity
// is non-cacheable, absent, or older than the effective read window. Never
// mutates state.
func (s *Service) Get(id ContentID, kind models.MediaKind) *models.DeliveryResponse {
	if !id.Cacheable() {
		return nil
	}

	entry, err := s.store.Get(kind, string(id))
	if err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Cache read failed")
		return nil
	}
	if entry == nil {
		return nil
	}
	if s.now().Sub(entry.CreatedAt) >= s.readWindow() {
		return nil
	}

	var resp models.DeliveryResponse
	if err := json.Unmarshal([]byte(entry.Response), &resp); err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Cache entry is not replayable")
		return nil
	}
	return &resp
}

// Put stores a response for an identity, resetting its age to now. A no-op
// for non-cacheable identities.
func (s *Service) Put(id ContentID, kind models.MediaKind, resp *models.DeliveryResponse) {
	if !id.Cacheable() {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Failed to serialize response for cache")
		return
	}

	entry := &models.CacheEntry{
		ContentID: string(id),
		Response:  string(payload),
		Title:     resp.Result.Title,
		Quality:   resp.Result.Quality,
		CreatedAt: s.now(),
	}
	if err := s.store.Upsert(kind, entry); err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Cache write failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"content_id": id,
		"kind":       kind,
	}).Info("Response cached")
}

// Invalidate removes both renditions of a content id, reporting independently
// which kinds held an entry.
func (s *Service) Invalidate(id ContentID) (audioRemoved, videoRemoved bool) {
	audioRemoved, err := s.store.Delete(models.KindAudio, string(id))
	if err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Audio cache invalidation failed")
	}
	videoRemoved, err = s.store.Delete(models.KindVideo, string(id))
	if err != nil {
		logrus.WithError(err).WithField("content_id", id).Warn("Video cache invalidation failed")
	}
	return audioRemoved, videoRemoved
}

// Stats returns the entry counts of both cache tables.
func (s *Service) Stats() (audioCount, videoCount int64, err error) {
	if audioCount, err = s.store.Count(models.KindAudio); err != nil {
		return 0, 0, err
	}
	if videoCount, err = s.store.Count(models.KindVideo); err != nil {
		return 0, 0, err
	}
	return audioCount, videoCount, nil
}
