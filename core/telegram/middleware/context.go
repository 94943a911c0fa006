package middleware

import (
	"context"

	"github.com/m3rciful/finbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

func storeContext(c tele.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Context returns the request context stored by LoggerMiddleware, or one
// built from the update when the middleware did not run.
func Context(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx
	}
	return buildContext(c)
}

func buildContext(c tele.Context) context.Context {
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID
	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	return logger.WithUpdateMeta(ctx, updateID, userID, chatID)
}
