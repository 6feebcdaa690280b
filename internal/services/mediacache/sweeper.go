package mediacache

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Sweeper periodically deletes cache rows older than the TTL. Reads already
// filter stale entries out, so the sweeper only reclaims storage.
type Sweeper struct {
	cache    *Service
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper over the given cache service.
func NewSweeper(cache *Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		cache:    cache,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (w *Sweeper) Start() {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		logrus.WithField("interval", w.interval).Info("Cache sweeper started")
		for {
			select {
			case <-ticker.C:
				w.sweep()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (w *Sweeper) Stop() {
	close(w.stop)
	<-w.done
	logrus.Info("Cache sweeper stopped")
}

func (w *Sweeper) sweep() {
	cutoff := w.cache.now().Add(-w.cache.ttl)
	for _, kind := range []models.MediaKind{models.KindAudio, models.KindVideo} {
		removed, err := w.cache.store.DeleteExpired(kind, cutoff)
		if err != nil {
			logrus.WithError(err).WithField("kind", kind).Warn("Cache sweep failed")
			continue
		}
		if removed > 0 {
			logrus.WithFields(logrus.Fields{
				"kind":    kind,
				"removed": removed,
			}).Info("Swept expired cache entries")
		}
	}
}
