package bot

import (
	"context"

	tele "gopkg.in/telebot.v3"
)

// Announcer delivers publisher messages to the configured announce chat.
// Implements publisher.Sender.
type Announcer struct {
	bot    *tele.Bot
	chatID int64
}

// NewAnnouncer creates an Announcer for the given chat.
func NewAnnouncer(bot *tele.Bot, chatID int64) *Announcer {
	return &Announcer{bot: bot, chatID: chatID}
}

// Send posts one announcement. The publisher owns failure handling.
func (a *Announcer) Send(_ context.Context, text string) error {
	_, err := a.bot.Send(tele.ChatID(a.chatID), text)
	return err
}
