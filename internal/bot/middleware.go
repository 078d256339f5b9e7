// Package bot provides middleware for the chat bot.
package bot

import (
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/config"
)

// WhitelistMiddleware drops updates from chats outside the configured
// whitelist. An empty whitelist allows everything.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if chat.Type != tele.ChatPrivate && !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring command from non-whitelisted chat")
				return nil
			}
			return next(c)
		}
	}
}

// ManagerMiddleware restricts a handler group to configured managers.
// Authorization lives here, outside the core services.
func ManagerMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if !cfg.IsManager(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-manager attempted a restricted command")
				return c.Reply("❌ 관리자만 사용할 수 있는 명령어예요.")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs each handled update and its duration.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			event := log.Info()
			if err != nil {
				event = log.Error().Err(err)
			}
			var userID int64
			if c.Sender() != nil {
				userID = c.Sender().ID
			}
			event.
				Int64("user_id", userID).
				Str("text", c.Text()).
				Dur("duration", time.Since(start)).
				Msg("Update handled")
			return err
		}
	}
}
