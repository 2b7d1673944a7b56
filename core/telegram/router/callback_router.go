package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/callbacks"
	"github.com/m3rciful/eventbot/core/telegram/middleware"
)

// CallbackOptions overrides the registry's unknown-callback answer.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches button presses by unique through the registry.
// Known callbacks are answered before the handler runs; unknown ones go to
// the not-found handler, which answers them itself.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.Parse(cb)
		s := newSummary("callback."+normalizeHandlerName(key), slog.String("cb_key", key))

		if h, ok := reg.GetCallback(key); ok && h != nil {
			_ = c.Respond()
			return s.run(c, func() error { return h(c) })
		}

		s.outcome = "rejected"
		notFound := opts.NotFound
		if notFound == nil {
			notFound = reg.CallbackNotFound()
		}
		return s.run(c, func() error {
			if notFound == nil {
				return c.Respond()
			}
			return notFound(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
