package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/middleware"
)

// Pending reports and consumes a chat's outstanding conversation step.
type Pending interface {
	InProgress(c tele.Context) bool
	Handle(c tele.Context) error
}

// TextOptions sets the handler for text nothing else claims.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the OnText handler. A pending step wins, then a
// non-admin command alias, then the registry fallback, then UnknownText.
func TextRoutes(pending Pending, reg *tg.Registry, opts TextOptions) []tg.Route {
	pick := func(c tele.Context) (string, tele.HandlerFunc) {
		if pending != nil && pending.InProgress(c) {
			return "pending", pending.Handle
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return normalizeHandlerName(key), cmd.Handler
			}
			if fb := reg.TextFallback(); fb != nil {
				return "fallback", fb
			}
		}
		return "unknown_text", opts.UnknownText
	}

	handler := func(c tele.Context) error {
		name, h := pick(c)
		s := newSummary(name)
		if h == nil {
			s.status = "skip"
			s.log(c, nil)
			return nil
		}
		return s.run(c, func() error { return h(c) })
	}
	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
