package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/logger"
	tghelpers "github.com/m3rciful/eventbot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude holds update kinds ("callback", "message", "inline_query") that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// limiter admits one update per user per interval.
type limiter struct {
	interval time.Duration
	clk      clock.Clock
	mu       sync.Mutex
	last     map[int64]time.Time
}

func (l *limiter) allow(userID int64) bool {
	now := l.clk.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, seen := l.last[userID]; seen && now.Sub(prev) < l.interval {
		return false
	}
	l.last[userID] = now
	return true
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message != nil:
		return "message"
	case u.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware drops updates that arrive within Interval of the
// previous admitted update from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	l := &limiter{interval: opts.Interval, clk: opts.Clock, last: map[int64]time.Time{}}
	if l.clk == nil {
		l.clk = clock.New()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || l.interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || l.allow(user.ID) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.String("payload", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
