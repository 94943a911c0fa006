package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/finbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware builds the request context (rid, update/chat/user ids),
// logs one receipt line per update and one completion line with its duration.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := logger.WithLogger(buildContext(c), logger.TG)
		storeContext(c, ctx)

		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)

		err := next(c)
		done := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			done = append(done, slog.String("err", err.Error()))
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.handled", done...)
		return err
	}
}
