package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Telegram rejects messages longer than this.
const maxMessageLen = 4096

func (b *Bot) handleCommand(chatID int64, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)

	switch msg.Command() {
	case "start":
		b.registerUser(msg)
		b.handleStart(chatID, msg)
	case "help":
		b.handleHelp(chatID)
	case "key":
		b.registerUser(msg)
		b.handleKey(chatID, userID)
	case "showallkeys", "showallkey":
		b.requireAdmin(chatID, userID, b.handleShowAllKeys)
	case "stats":
		b.requireAdmin(chatID, userID, b.handleStats)
	case "broadcast":
		b.requireAdmin(chatID, userID, func(id int64) {
			b.handleBroadcast(id, msg.CommandArguments())
		})
	case "deletekey":
		b.requireAdmin(chatID, userID, func(id int64) {
			b.handleDeleteKey(id, msg.CommandArguments())
		})
	default:
		b.reply(chatID, "Unknown command. Try /help")
	}
}

// registerUser records the sender in the user registry so broadcasts can
// reach them later.
func (b *Bot) registerUser(msg *tgbotapi.Message) {
	u := msg.From
	if u == nil {
		return
	}
	err := b.users.Upsert(&models.BotUser{
		UserID:    strconv.FormatInt(u.ID, 10),
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Warn("Failed to record bot user")
	}
}

func (b *Bot) requireAdmin(chatID int64, userID string, fn func(chatID int64)) {
	if !b.cfg.IsAdminUser(userID) {
		b.reply(chatID, "❌ This command is for admins only!")
		return
	}
	fn(chatID)
}

func (b *Bot) handleStart(chatID int64, msg *tgbotapi.Message) {
	name := msg.From.FirstName
	if name == "" {
		name = msg.From.UserName
	}
	b.reply(chatID, fmt.Sprintf(
		"Hi %s! 👋\n\n"+
			"Welcome to TaitanX Audio/Video Downloader Bot! 🎵🎬\n\n"+
			"Use /key to generate your API key\n"+
			"Use /help to see all commands",
		name,
	))
}

func (b *Bot) handleHelp(chatID int64) {
	b.replyMarkdown(chatID,
		"🤖 **TaitanX Bot Commands:**\n\n"+
			"**For Users:**\n"+
			"/start - Start the bot\n"+
			"/help - Show this help message\n"+
			"/key - Generate your API key (Valid 7 days, 200 daily requests)\n\n"+
			"**For Admins:**\n"+
			"/showallkeys - Show all API keys\n"+
			"/stats - Show usage statistics\n"+
			"/broadcast <message> - Send a message to all users\n"+
			"/deletekey <key> - Delete specific API key\n\n"+
			"**API Usage:**\n"+
			"- Audio: `/audio?url=YOUTUBE_URL&api_key=YOUR_KEY`\n"+
			"- Video: `/video?url=YOUTUBE_URL&api_key=YOUR_KEY`\n\n"+
			"📊 **Rate Limits:**\n"+
			"- 200 requests/day, keys valid for 7 days\n"+
			"- Success responses only count",
	)
}

func (b *Bot) handleKey(chatID int64, userID string) {
	existing, err := b.quota.ActiveKey(userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to look up active key")
		b.reply(chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	if existing != nil {
		b.replyMarkdown(chatID, fmt.Sprintf(
			"🔑 You already have an active API key:\n\n`%s`\n\n"+
				"💡 Each key is valid for 7 days with 200 daily requests.\n"+
				"📊 Success responses only count toward your limit.",
			existing.Key,
		))
		return
	}

	tier := models.TierStandard
	if b.cfg.IsAdminUser(userID) {
		tier = models.TierAdmin
	}

	key, err := b.quota.Issue(userID, tier)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to issue API key")
		b.reply(chatID, "❌ Failed to generate a key. Please try again later.")
		return
	}

	validity := "7 days"
	requests := fmt.Sprintf("%d per day", b.cfg.DailyRequestLimit)
	if key.IsAdmin() {
		validity = "Lifetime ⭐ (Admin)"
		requests = "Unlimited"
	}

	b.replyMarkdown(chatID, fmt.Sprintf(
		"🎉 **Your API Key has been generated!**\n\n"+
			"🔑 **Key:** `%s`\n"+
			"⏰ **Validity:** %s\n"+
			"📊 **Requests:** %s\n"+
			"✅ **Success responses only count**\n\n"+
			"🌐 **API Endpoints:**\n"+
			"• Audio: `/audio?url=URL&api_key=%s`\n"+
			"• Video: `/video?url=URL&api_key=%s`\n\n"+
			"📝 **Usage Examples:**\n"+
			"• By URL: `...url=https://youtu.be/VIDEO_ID`\n"+
			"• By ID: `...url=VIDEO_ID`\n"+
			"• By Name: `...name=SONG_NAME`\n\n"+
			"⚠️ **Keep this key secure!**",
		key.Key, validity, requests, key.Key, key.Key,
	))
}

func (b *Bot) handleShowAllKeys(chatID int64) {
	keys, err := b.quota.ListKeys()
	if err != nil {
		logrus.WithError(err).Error("Failed to list API keys")
		b.reply(chatID, "❌ Failed to load keys.")
		return
	}

	if len(keys) == 0 {
		b.reply(chatID, "📭 No API keys found!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔐 **All API Keys:**\n\n")
	for _, key := range keys {
		status := "🔴 Inactive"
		if key.IsActive {
			status = "🟢 Active"
		}
		adminFlag := ""
		if key.IsAdmin() {
			adminFlag = " 👑"
		}
		expires := "Never"
		if key.ExpiresAt != nil {
			expires = key.ExpiresAt.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(&sb,
			"🔑 `%s`\n👤 %s%s\n📊 Used: %d times\n⏰ Expires: %s\nStatus: %s\n\n",
			key.Key, key.UserID, adminFlag, key.TotalRequests, expires, status,
		)
	}

	for _, part := range splitMessage(sb.String()) {
		b.replyMarkdown(chatID, part)
	}
}

func (b *Bot) handleStats(chatID int64) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := b.records.DailyStats(startOfDay)
	if err != nil {
		logrus.WithError(err).Error("Failed to aggregate daily stats")
		b.reply(chatID, "❌ Failed to load statistics.")
		return
	}

	keys, err := b.quota.ListKeys()
	if err != nil {
		logrus.WithError(err).Error("Failed to list API keys")
		b.reply(chatID, "❌ Failed to load statistics.")
		return
	}

	b.replyMarkdown(chatID, fmt.Sprintf(
		"📊 **Usage Statistics**\n\n"+
			"🔑 **Total Keys:** %d\n"+
			"📈 **Today's Stats:**\n"+
			"   • Total Requests: %d\n"+
			"   • Successful: %d\n"+
			"   • Unique Users: %d\n\n"+
			"⏰ Last updated: %s UTC",
		len(keys),
		stats.TotalRequests,
		stats.SuccessfulRequests,
		stats.UniqueUsers,
		now.Format("2006-01-02 15:04:05"),
	))
}

func (b *Bot) handleBroadcast(chatID int64, args string) {
	text := strings.TrimSpace(args)
	if text == "" {
		b.reply(chatID, "❌ Usage: /broadcast <message>")
		return
	}

	users, err := b.users.List()
	if err != nil {
		logrus.WithError(err).Error("Failed to list bot users")
		b.reply(chatID, "❌ Failed to load the user list.")
		return
	}

	body := "📢 **Broadcast Message from TaitanX:**\n\n" + text
	var sent, failed int
	for _, u := range users {
		target, err := strconv.ParseInt(u.UserID, 10, 64)
		if err != nil {
			failed++
			continue
		}
		out := tgbotapi.NewMessage(target, body)
		out.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.send(out); err != nil {
			logrus.WithError(err).WithField("user_id", u.UserID).Warn("Broadcast delivery failed")
			failed++
			continue
		}
		sent++
	}

	b.replyMarkdown(chatID, fmt.Sprintf(
		"✅ Broadcast completed!\n\n"+
			"📤 Sent: %d\n"+
			"❌ Failed: %d\n"+
			"👥 Total users: %d",
		sent, failed, len(users),
	))
}

func (b *Bot) handleDeleteKey(chatID int64, args string) {
	token := strings.TrimSpace(args)
	if token == "" {
		b.reply(chatID, "❌ Usage: /deletekey <api_key>")
		return
	}

	existed, err := b.quota.Revoke(token)
	if err != nil {
		logrus.WithError(err).Error("Failed to delete API key")
		b.reply(chatID, "❌ Failed to delete the key.")
		return
	}

	if existed {
		b.replyMarkdown(chatID, fmt.Sprintf("✅ API key `%s` deleted successfully!", token))
	} else {
		b.reply(chatID, "❌ API key not found!")
	}
}

func splitMessage(s string) []string {
	if len(s) <= maxMessageLen {
		return []string{s}
	}
	var parts []string
	for len(s) > maxMessageLen {
		parts = append(parts, s[:maxMessageLen])
		s = s[maxMessageLen:]
	}
	return append(parts, s)
}
