// Package quota implements the API-key ledger: admission checks with lazy
// daily rollover, usage crediting, and key issuance/revocation.
package quota

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Typed rejections surfaced by Validate. The gateway maps all three to 401.
var (
	ErrKeyNotFound   = errors.New("invalid API key")
	ErrKeyExpired    = errors.New("API key expired")
	ErrQuotaExceeded = errors.New("daily request limit exceeded")
)

const (
	keyPrefix     = "Taitan"
	keyRandomLen  = 12
	keyAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	standardValid = 7 * 24 * time.Hour
)

// KeyStore is the persistence surface the ledger needs. Implemented by
// repository.APIKeyRepository.
type KeyStore interface {
	GetByKey(key string) (*models.APIKey, error)
	GetActiveByUserID(userID string) (*models.APIKey, error)
	Create(apiKey *models.APIKey) error
	Deactivate(key string) error
	ResetDaily(key string, at time.Time) error
	IncrementUsage(key string, at time.Time) error
	Delete(key string) (bool, error)
	List() ([]models.APIKey, error)
}

// Service is the quota ledger.
type Service struct {
	keys       KeyStore
	dailyLimit int
	now        func() time.Time
}

// NewService creates a quota ledger with the given daily limit for
// standard-tier keys.
func NewService(keys KeyStore, dailyLimit int) *Service {
	return &Service{
		keys:       keys,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Validate checks a token for admission. On crossing a calendar-day boundary
// since the key's last reset it zeroes the daily counter before the quota
// check runs; on a passed expiry it deactivates the key before rejecting.
func (s *Service) Validate(token string) (*models.APIKey, error) {
	key, err := s.keys.GetByKey(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	if key == nil || !key.IsActive {
		return nil, ErrKeyNotFound
	}

	now := s.now()
	if key.Expired(now) {
		if err := s.keys.Deactivate(token); err != nil {
			logrus.WithError(err).WithField("key", token).Warn("Failed to deactivate expired API key")
		}
		return nil, ErrKeyExpired
	}

	// Lazy daily rollover: reset happens as a side effect of validation, not
	// in a background job.
	if !sameDay(key.LastReset, now) {
		if err := s.keys.ResetDaily(token, now); err != nil {
			return nil, fmt.Errorf("failed to reset daily counter: %w", err)
		}
		key.DailyRequests = 0
		key.LastReset = now
	}

	if !key.IsAdmin() && key.DailyRequests >= s.dailyLimit {
		return nil, ErrQuotaExceeded
	}

	return key, nil
}

// Credit increments the key's daily and lifetime counters. Callers invoke it
// exactly once per verified success or cache hit, never for a failed request.
func (s *Service) Credit(token string) error {
	if err := s.keys.IncrementUsage(token, s.now()); err != nil {
		return fmt.Errorf("failed to credit API key usage: %w", err)
	}
	return nil
}

// Issue creates a new key for a user. A user holds at most one active key;
// any existing active key is deactivated first. Standard keys expire after
// seven days, admin keys never.
func (s *Service) Issue(userID string, tier models.Tier) (*models.APIKey, error) {
	existing, err := s.keys.GetActiveByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing API key: %w", err)
	}
	if existing != nil {
		if err := s.keys.Deactivate(existing.Key); err != nil {
			return nil, fmt.Errorf("failed to deactivate existing API key: %w", err)
		}
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	now := s.now()
	key := &models.APIKey{
		Key:       token,
		UserID:    userID,
		Tier:      tier,
		LastReset: now,
		IsActive:  true,
	}
	if tier != models.TierAdmin {
		expires := now.Add(standardValid)
		key.ExpiresAt = &expires
	}

	if err := s.keys.Create(key); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	return key, nil
}

// ActiveKey returns the user's current active key, or nil when they have
// none.
func (s *Service) ActiveKey(userID string) (*models.APIKey, error) {
	key, err := s.keys.GetActiveByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active API key: %w", err)
	}
	return key, nil
}

// Revoke removes a key. Idempotent; reports whether a record existed.
func (s *Service) Revoke(token string) (bool, error) {
	existed, err := s.keys.Delete(token)
	if err != nil {
		return false, fmt.Errorf("failed to delete API key: %w", err)
	}
	return existed, nil
}

// ListKeys returns every issued key for the admin surface.
func (s *Service) ListKeys() ([]models.APIKey, error) {
	return s.keys.List()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// generateToken builds "Taitan" plus twelve characters drawn from an
// uppercase alphanumeric alphabet via crypto/rand.
func generateToken() (string, error) {
	buf := make([]byte, keyRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, keyRandomLen)
	for i, b := range buf {
		out[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return keyPrefix + string(out), nil
}
