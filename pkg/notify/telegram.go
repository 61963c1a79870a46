package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramChannel delivers messages to a Telegram chat.
type telegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramChannel creates a Telegram notification channel.
func NewTelegramChannel(botToken string, chatID int64) (Channel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &telegramChannel{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (c *telegramChannel) Name() string {
	return "telegram"
}

// Send sends a message to the configured Telegram chat.
func (c *telegramChannel) Send(_ context.Context, msg Message) error {
	m := tgbotapi.NewMessage(c.chatID, msg.Body)
	m.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(m)
	return err
}
