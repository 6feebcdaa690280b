// Package delivery sequences one media request end to end: admission, cache
// probe, acquisition, relay, caching, and exactly-once usage accounting.
package delivery

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/acquire"
	"github.com/taitanx/media-delivery-backend/internal/services/events"
	"github.com/taitanx/media-delivery-backend/internal/services/mediacache"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
	"github.com/taitanx/media-delivery-backend/internal/services/relay"
	"github.com/taitanx/media-delivery-backend/internal/utils"
)

// Quota is the admission/accounting surface. Implemented by quota.Service.
type Quota interface {
	Validate(token string) (*models.APIKey, error)
	Credit(token string) error
}

// Cache is the content cache surface. Implemented by mediacache.Service.
type Cache interface {
	Get(id mediacache.ContentID, kind models.MediaKind) *models.DeliveryResponse
	Put(id mediacache.ContentID, kind models.MediaKind, resp *models.DeliveryResponse)
}

// Acquirer produces a local artifact for a locator. Implemented by
// acquire.Orchestrator.
type Acquirer interface {
	Acquire(ctx context.Context, locator string, kind models.MediaKind) (*acquire.Artifact, error)
}

// Relayer pushes an artifact to durable external storage. Implemented by
// relay.Adapter.
type Relayer interface {
	Relay(ctx context.Context, art *acquire.Artifact, kind models.MediaKind) (*relay.Result, error)
}

// Ledger appends request records. Implemented by
// repository.RequestRecordRepository.
type Ledger interface {
	Create(record *models.RequestRecord) error
}

// Publisher emits analytics events. Implemented by events.Publisher; a nil
// publisher drops everything.
type Publisher interface {
	Publish(event events.RequestEvent)
}

// Service is the gateway orchestration.
type Service struct {
	quota    Quota
	cache    Cache
	acquirer Acquirer
	relayer  Relayer
	ledger   Ledger
	events   Publisher

	now func() time.Time

	mu       sync.Mutex
	inflight map[string]*flight
}

// flight is one in-progress acquisition shared by concurrent identical
// requests. The first caller produces; the rest wait on done and replay.
type flight struct {
	done chan struct{}
	resp *models.DeliveryResponse
	err  error
}

// NewService wires the gateway orchestration.
func NewService(q Quota, cache Cache, acquirer Acquirer, relayer Relayer, ledger Ledger, publisher Publisher) *Service {
	return &Service{
		quota:    q,
		cache:    cache,
		acquirer: acquirer,
		relayer:  relayer,
		ledger:   ledger,
		events:   publisher,
		now:      time.Now,
		inflight: make(map[string]*flight),
	}
}

// Handle serves one request and returns the response envelope plus the HTTP
// status to send. Usage is credited in exactly one place, and only for a
// verified success or a cache hit.
func (s *Service) Handle(ctx context.Context, kind models.MediaKind, urlParam, nameParam, token string) (*models.DeliveryResponse, int) {
	start := s.now()

	key, err := s.quota.Validate(token)
	if err != nil {
		if errors.Is(err, quota.ErrKeyNotFound) || errors.Is(err, quota.ErrKeyExpired) || errors.Is(err, quota.ErrQuotaExceeded) {
			return errorEnvelope(kind, err.Error()), http.StatusUnauthorized
		}
		logrus.WithError(err).Error("Key validation failed")
		return errorEnvelope(kind, "Internal server error"), http.StatusInternalServerError
	}

	locator, err := mediacache.ResolveLocator(urlParam, nameParam)
	if err != nil {
		return errorEnvelope(kind, "Missing url or name parameter"), http.StatusBadRequest
	}
	id := mediacache.Canonicalize(locator)

	log := logrus.WithFields(logrus.Fields{
		"endpoint":   kind.Endpoint(),
		"content_id": id,
		"user_id":    key.UserID,
	})

	if cached := s.cache.Get(id, kind); cached != nil {
		log.Info("Cache hit")
		out := *cached
		out.Cached = true
		s.account(key, kind, id, true, true, s.now().Sub(start))
		return &out, http.StatusOK
	}
	log.Info("Cache miss")

	resp, err := s.coalesce(ctx, locator, id, kind, start)
	if err != nil {
		log.WithError(err).Warn("Request failed")
		s.account(key, kind, id, false, false, s.now().Sub(start))
		return errorEnvelope(kind, err.Error()), http.StatusOK
	}

	s.account(key, kind, id, true, resp.Cached, s.now().Sub(start))
	return resp, http.StatusOK
}

// coalesce collapses concurrent identical misses into one acquisition. The
// leader runs produce; waiters replay its outcome, marked as cached when the
// id is cacheable.
func (s *Service) coalesce(ctx context.Context, locator string, id mediacache.ContentID, kind models.MediaKind, start time.Time) (*models.DeliveryResponse, error) {
	flightKey := string(kind) + "|" + locator
	if id.Cacheable() {
		flightKey = string(kind) + "|" + string(id)
	}

	s.mu.Lock()
	if fl, ok := s.inflight[flightKey]; ok {
		s.mu.Unlock()
		select {
		case <-fl.done:
			if fl.err != nil {
				return nil, fl.err
			}
			// Search responses are never cached, so a replayed one must not
			// claim to be.
			out := *fl.resp
			if id.Cacheable() {
				out.Cached = true
			}
			return &out, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &flight{done: make(chan struct{})}
	s.inflight[flightKey] = fl
	s.mu.Unlock()

	fl.resp, fl.err = s.produce(ctx, locator, id, kind, start)

	s.mu.Lock()
	delete(s.inflight, flightKey)
	s.mu.Unlock()
	close(fl.done)

	return fl.resp, fl.err
}

// produce runs acquisition and relay, composes the success envelope and
// writes it through to the cache. The artifact is released on every exit
// path. The pipeline is detached from the caller's cancellation: an abandoned
// request still runs to completion server-side.
func (s *Service) produce(ctx context.Context, locator string, id mediacache.ContentID, kind models.MediaKind, start time.Time) (*models.DeliveryResponse, error) {
	ctx = context.WithoutCancel(ctx)

	dlStart := s.now()
	art, err := s.acquirer.Acquire(ctx, locator, kind)
	if err != nil {
		return nil, err
	}
	defer art.Cleanup()
	downloadMS := s.now().Sub(dlStart).Milliseconds()

	upStart := s.now()
	res, err := s.relayer.Relay(ctx, art, kind)
	if err != nil {
		return nil, err
	}
	uploadMS := s.now().Sub(upStart).Milliseconds()

	durationSecs := res.DurationSeconds
	if durationSecs == 0 {
		durationSecs = art.DurationSeconds
	}
	quality := "192kbps"
	if kind == models.KindVideo {
		quality = art.Quality
		if quality == "" {
			quality = "720p"
		}
	}

	resp := &models.DeliveryResponse{
		Status: true,
		Type:   kind.Label(),
		Cached: false,
		Result: models.DeliveryResult{
			Title:     art.Title,
			Duration:  utils.FormatISODuration(durationSecs),
			Quality:   quality,
			URL:       res.URL,
			FileID:    res.FileID,
			ContentID: string(id),
			TelegramMsg: models.TelegramMessage{
				MsgID: res.MessageID,
				TLink: res.TLink,
			},
			Timing: models.Timing{
				DownloadMS: downloadMS,
				UploadMS:   uploadMS,
				TotalMS:    s.now().Sub(start).Milliseconds(),
			},
		},
	}

	s.cache.Put(id, kind, resp)
	return resp, nil
}

// account is the single accounting side effect per request: one credit
// decision, one ledger append, one analytics event. Accounting failures are
// logged and swallowed so they never mask a delivered result.
func (s *Service) account(key *models.APIKey, kind models.MediaKind, id mediacache.ContentID, success, cached bool, elapsed time.Duration) {
	if success {
		if err := s.quota.Credit(key.Key); err != nil {
			logrus.WithError(err).WithField("user_id", key.UserID).Warn("Failed to credit usage")
		}
	}

	record := &models.RequestRecord{
		RequestID: uuid.NewString(),
		UserID:    key.UserID,
		Endpoint:  kind.Endpoint(),
		Success:   success,
		Cached:    cached,
	}
	if err := s.ledger.Create(record); err != nil {
		logrus.WithError(err).WithField("user_id", key.UserID).Warn("Failed to append request record")
	}

	if s.events != nil {
		s.events.Publish(events.RequestEvent{
			RequestID:  record.RequestID,
			UserID:     key.UserID,
			Endpoint:   kind.Endpoint(),
			ContentID:  string(id),
			Success:    success,
			Cached:     cached,
			DurationMS: elapsed.Milliseconds(),
			Timestamp:  s.now(),
		})
	}
}

func errorEnvelope(kind models.MediaKind, msg string) *models.DeliveryResponse {
	return &models.DeliveryResponse{
		Status: false,
		Type:   kind.Label(),
		Cached: false,
		Result: models.DeliveryResult{
			Duration: "PT0S",
			Quality:  "Unknown",
		},
		Error: utils.StripControl(msg),
	}
}
