package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/logger"
	"github.com/m3rciful/eventbot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue used by SendText. Nil makes sends synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// SendText replies in the current chat. With a dispatcher installed the call
// is queued; a full or closed queue falls back to sending inline.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := make([]any, 0, 1)
	if len(markup) > 0 && markup[0] != nil {
		opts = append(opts, markup[0])
	}
	send := func() error { return c.Send(text, opts...) }

	d := dispatcher.Load()
	if d == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, "send.text", "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback", slog.String("action", "send.text"), logger.Err(err))
		return send()
	}
	return err
}
