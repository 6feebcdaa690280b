// Package bot runs the Telegram key-issuance bot. Users request API keys in
// chat; admins inspect and revoke them.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/config"
	"github.com/taitanx/media-delivery-backend/internal/database/repository"
	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
)

// UserStore is the registry of everyone who has talked to the bot.
// Implemented by repository.BotUserRepository.
type UserStore interface {
	Upsert(user *models.BotUser) error
	List() ([]models.BotUser, error)
}

// Bot wraps the Telegram long-polling loop and its command handlers.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	quota   *quota.Service
	records *repository.RequestRecordRepository
	users   UserStore
	send    func(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// New authorizes against the Bot API and builds the bot.
func New(cfg *config.Config, quotaService *quota.Service, records *repository.RequestRecordRepository, users UserStore) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Bot authorized as @%s", api.Self.UserName)

	return &Bot{
		api:     api,
		cfg:     cfg,
		quota:   quotaService,
		records: records,
		users:   users,
		send:    api.Send,
	}, nil
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	logrus.Info("Bot started, waiting for updates...")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Bot shutting down")
			return
		case upd := <-updates:
			b.handleUpdate(upd)
		}
	}
}

func (b *Bot) handleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}

	msg := upd.Message
	chatID := msg.Chat.ID

	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"recover": r,
				"chat_id": chatID,
			}).Error("Panic in bot handler")
			b.reply(chatID, "❌ Internal error. Please try again later.")
		}
	}()

	if !msg.IsCommand() {
		b.reply(chatID, "Send /key to get your API key, or /help for all commands.")
		return
	}

	b.handleCommand(chatID, msg)
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send(out); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to send bot reply")
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.send(out); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to send bot reply")
	}
}
