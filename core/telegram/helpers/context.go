// Package helpers holds small adapters shared by routers, middleware and handlers.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/logger"
)

const ctxSlot = "eventbot.ctx"

// Attach caches ctx on c so later helpers log with the same correlation data.
func Attach(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

// BuildContext returns the context cached on c, or derives one carrying the
// update, chat and user ids plus a request id and caches it.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(ctxSlot).(context.Context); ok {
		return ctx
	}
	updateID, chatID, userID := c.Update().ID, ChatID(c), SenderID(c)
	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	Attach(c, ctx)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	Attach(c, ctx)
	return ctx
}

// ChatID is the chat of the update, or the sender for updates without one.
func ChatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return SenderID(c)
}

// SenderID is the id of the user behind the update, 0 when unknown.
func SenderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
