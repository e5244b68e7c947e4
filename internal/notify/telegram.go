package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

// Telegram pushes lead intake alerts to the firm's admin chats so new
// enquiries get a reply before they go cold.
type Telegram struct {
	bot   *tgbotapi.BotAPI
	chats []int64
	log   zerolog.Logger
}

// NewTelegram connects the bot. A failed connection is returned, not
// fatal: callers fall back to running without notifications.
func NewTelegram(token string, chats []int64, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Int("chats", len(chats)).Msg("telegram notifier ready")
	return &Telegram{bot: bot, chats: chats, log: log}, nil
}

// LeadReceived announces a new enquiry to every configured chat. Delivery
// is best effort.
func (t *Telegram) LeadReceived(lead models.Lead) {
	text := fmt.Sprintf(
		"มีลูกค้าติดต่อเข้ามาใหม่\n\nชื่อ: %s\nโทร: %s\nประเภทคดี: %s\n\n%s",
		lead.Name, lead.Phone, lead.Category, lead.Details,
	)
	if lead.AISummary != "" {
		text += "\n\nสรุป: " + lead.AISummary
	}
	for _, chat := range t.chats {
		msg := tgbotapi.NewMessage(chat, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.log.Warn().Err(err).Int64("chat", chat).Msg("lead alert not delivered")
		}
	}
}
