// Package relay pushes local artifacts to a Telegram channel used as durable
// blob storage and resolves the stable retrieval URL for each upload.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/acquire"
)

// ErrPayloadTooLarge is returned for artifacts above the bot API ceiling.
// There is no local-hosting fallback; the request fails.
var ErrPayloadTooLarge = errors.New("artifact exceeds relay payload limit")

const (
	fileAPIBase = "https://api.telegram.org/file/bot"
	maxRetries  = 3
)

// Result is the durable location of a relayed artifact.
type Result struct {
	URL             string
	FileID          string
	MessageID       int
	TLink           string
	DurationSeconds int
}

// botAPI is the slice of the Telegram client the adapter calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Adapter wraps the Telegram bot API as a single fallible external call.
type Adapter struct {
	api      botAPI
	token    string
	channel  string // channel username, e.g. "@TaitanXApi"
	maxBytes int64
	backoff  func(attempt int) time.Duration
}

// NewAdapter authorizes the bot and returns the adapter.
func NewAdapter(token, channel string, maxBytes int64) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logrus.WithField("username", api.Self.UserName).Info("Relay bot authorized")
	return &Adapter{
		api:      api,
		token:    token,
		channel:  channel,
		maxBytes: maxBytes,
		backoff:  retryAfter,
	}, nil
}

// Relay uploads the artifact to the storage channel and returns a stable
// retrieval URL. The artifact itself is untouched; cleanup stays with the
// caller.
func (a *Adapter) Relay(ctx context.Context, art *acquire.Artifact, kind models.MediaKind) (*Result, error) {
	if a.maxBytes > 0 && art.SizeBytes > a.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, art.SizeBytes)
	}

	file := tgbotapi.FilePath(art.FilePath)
	res := &Result{}

	var msg tgbotapi.Message
	var err error
	if kind == models.KindAudio {
		cfg := tgbotapi.NewAudio(0, file)
		cfg.ChannelUsername = a.channel
		cfg.Caption = "🎵 Downloaded via TaitanX API"
		cfg.Title = art.Title
		msg, err = a.send(ctx, cfg)
		if err == nil && msg.Audio != nil {
			res.FileID = msg.Audio.FileID
			res.DurationSeconds = msg.Audio.Duration
		}
	} else {
		cfg := tgbotapi.NewVideo(0, file)
		cfg.ChannelUsername = a.channel
		cfg.Caption = "🎬 Downloaded via TaitanX API"
		cfg.SupportsStreaming = true
		msg, err = a.send(ctx, cfg)
		if err == nil && msg.Video != nil {
			res.FileID = msg.Video.FileID
			res.DurationSeconds = msg.Video.Duration
		}
	}
	if err != nil {
		return nil, fmt.Errorf("telegram upload failed: %w", err)
	}
	if res.FileID == "" {
		return nil, fmt.Errorf("telegram upload failed: no file id in response")
	}

	res.MessageID = msg.MessageID
	res.TLink = fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(a.channel, "@"), msg.MessageID)

	tgFile, err := a.api.GetFile(tgbotapi.FileConfig{FileID: res.FileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file path: %w", err)
	}
	res.URL = fileAPIBase + a.token + "/" + tgFile.FilePath

	logrus.WithFields(logrus.Fields{
		"msg_id": res.MessageID,
		"bytes":  art.SizeBytes,
		"kind":   kind,
	}).Info("Artifact relayed")
	return res, nil
}

// send retries 429 responses with a fixed backoff ladder; any other error is
// terminal.
func (a *Adapter) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var msg tgbotapi.Message
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		msg, err = a.api.Send(c)
		if err == nil {
			return msg, nil
		}
		if !isRateLimited(err) {
			return msg, err
		}

		wait := a.backoff(attempt)
		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait,
		}).Warn("Rate limited by Telegram, waiting")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return msg, ctx.Err()
		}
	}
	return msg, err
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Too Many Requests") ||
		strings.Contains(msg, "retry after")
}

func retryAfter(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 3 * time.Second
	case 2:
		return 10 * time.Second
	default:
		return 30 * time.Second
	}
}
