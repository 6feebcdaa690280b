package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taitanx/media-delivery-backend/internal/config"
	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
)

type fakeUserStore struct {
	upserts []models.BotUser
	users   []models.BotUser
	listErr error
}

func (f *fakeUserStore) Upsert(user *models.BotUser) error {
	f.upserts = append(f.upserts, *user)
	return nil
}

func (f *fakeUserStore) List() ([]models.BotUser, error) {
	return f.users, f.listErr
}

type fakeKeyStore struct {
	byUser map[string]*models.APIKey
}

func (f *fakeKeyStore) GetByKey(key string) (*models.APIKey, error) { return nil, nil }

func (f *fakeKeyStore) GetActiveByUserID(userID string) (*models.APIKey, error) {
	return f.byUser[userID], nil
}

func (f *fakeKeyStore) Create(apiKey *models.APIKey) error {
	if f.byUser == nil {
		f.byUser = make(map[string]*models.APIKey)
	}
	f.byUser[apiKey.UserID] = apiKey
	return nil
}

func (f *fakeKeyStore) Deactivate(key string) error                   { return nil }
func (f *fakeKeyStore) ResetDaily(key string, at time.Time) error     { return nil }
func (f *fakeKeyStore) IncrementUsage(key string, at time.Time) error { return nil }
func (f *fakeKeyStore) Delete(key string) (bool, error)               { return false, nil }
func (f *fakeKeyStore) List() ([]models.APIKey, error)                { return nil, nil }

// sentLog captures outgoing messages in place of the Bot API.
type sentLog struct {
	msgs []tgbotapi.MessageConfig
	errs []error
}

func (s *sentLog) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	s.msgs = append(s.msgs, msg)
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	return tgbotapi.Message{}, err
}

func newTestBot(users *fakeUserStore, adminIDs ...string) (*Bot, *sentLog) {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	cfg := &config.Config{
		DailyRequestLimit: 200,
		AdminUserIDs:      admins,
	}
	log := &sentLog{}
	b := &Bot{
		cfg:   cfg,
		quota: quota.NewService(&fakeKeyStore{}, cfg.DailyRequestLimit),
		users: users,
		send:  log.send,
	}
	return b, log
}

func commandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "someone", FirstName: "Some"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func TestKeyRegistersUserAndIssuesKey(t *testing.T) {
	users := &fakeUserStore{}
	b, log := newTestBot(users)

	b.handleCommand(7, commandMessage(7, "/key"))

	require.Len(t, users.upserts, 1)
	assert.Equal(t, "7", users.upserts[0].UserID)
	assert.Equal(t, "someone", users.upserts[0].Username)

	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0].Text, "Taitan")
}

func TestStartRegistersUser(t *testing.T) {
	users := &fakeUserStore{}
	b, _ := newTestBot(users)

	b.handleCommand(5, commandMessage(5, "/start"))

	require.Len(t, users.upserts, 1)
	assert.Equal(t, "5", users.upserts[0].UserID)
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	users := &fakeUserStore{users: []models.BotUser{{UserID: "11"}}}
	b, log := newTestBot(users, "99")

	b.handleCommand(7, commandMessage(7, "/broadcast hello"))

	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0].Text, "admins only")
}

func TestBroadcastEmptyArgs(t *testing.T) {
	users := &fakeUserStore{}
	b, log := newTestBot(users, "99")

	b.handleCommand(99, commandMessage(99, "/broadcast"))

	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.msgs[0].Text, "Usage: /broadcast")
}

func TestBroadcastDeliversToAllUsers(t *testing.T) {
	users := &fakeUserStore{users: []models.BotUser{
		{UserID: "11"},
		{UserID: "22"},
	}}
	b, log := newTestBot(users, "99")
	log.errs = []error{nil, errors.New("blocked by user")}

	b.handleCommand(99, commandMessage(99, "/broadcast service maintenance at noon"))

	require.Len(t, log.msgs, 3)
	assert.Equal(t, int64(11), log.msgs[0].ChatID)
	assert.Equal(t, int64(22), log.msgs[1].ChatID)
	assert.Contains(t, log.msgs[0].Text, "Broadcast Message from TaitanX")
	assert.Contains(t, log.msgs[0].Text, "service maintenance at noon")
	assert.Equal(t, tgbotapi.ModeMarkdown, log.msgs[0].ParseMode)

	summary := log.msgs[2]
	assert.Equal(t, int64(99), summary.ChatID)
	assert.Contains(t, summary.Text, "Sent: 1")
	assert.Contains(t, summary.Text, "Failed: 1")
	assert.Contains(t, summary.Text, "Total users: 2")
}

func TestBroadcastSkipsMalformedUserIDs(t *testing.T) {
	users := &fakeUserStore{users: []models.BotUser{
		{UserID: "not-a-number"},
		{UserID: "33"},
	}}
	b, log := newTestBot(users, "99")

	b.handleCommand(99, commandMessage(99, "/broadcast hi"))

	require.Len(t, log.msgs, 2)
	assert.Equal(t, int64(33), log.msgs[0].ChatID)
	assert.Contains(t, log.msgs[1].Text, "Sent: 1")
	assert.Contains(t, log.msgs[1].Text, "Failed: 1")
}
