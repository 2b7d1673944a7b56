package middleware

import tele "gopkg.in/telebot.v4"

const countersKey = "eventbot.counters"

// counters records what a handler sent, for the per-handler summary line.
type counters struct {
	messages int
	keyboard bool
}

// countingContext wraps tele.Context and tallies successful outbound calls.
type countingContext struct {
	tele.Context
	n *counters
}

func (c countingContext) track(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.n.messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			c.n.keyboard = c.n.keyboard || v != nil
		case *tele.SendOptions:
			c.n.keyboard = c.n.keyboard || (v != nil && v.ReplyMarkup != nil)
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.track(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.track(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.track(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.track(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.track(c.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware counts messages sent through the context and whether any carried a keyboard.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns the message count and keyboard flag collected so far.
func GetCounters(c tele.Context) (int, bool) {
	if n, ok := c.Get(countersKey).(*counters); ok {
		return n.messages, n.keyboard
	}
	return 0, false
}
