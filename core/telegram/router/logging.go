package router

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/logger"
	tghelpers "github.com/m3rciful/eventbot/core/telegram/helpers"
	"github.com/m3rciful/eventbot/core/telegram/middleware"
)

// summary writes one "handler.handled" line per routed update.
// Empty status and outcome are derived from the handler error.
type summary struct {
	name    string
	start   time.Time
	status  string
	outcome string
	extra   []slog.Attr
}

func newSummary(name string, extra ...slog.Attr) summary {
	return summary{name: name, start: time.Now(), extra: extra}
}

// run tags the context with the handler name, calls fn and logs the result.
func (s summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.name)
	err := fn()
	s.log(c, err)
	return err
}

func (s summary) log(c tele.Context, err error) {
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", cmpOr(s.status, logger.Status(err))),
		slog.String("handler", s.name),
		slog.String("outcome", cmpOr(s.outcome, logger.Status(err))),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(s.start)),
	}
	lvl := slog.LevelInfo
	if err != nil {
		lvl = slog.LevelError
		attrs = append(attrs, logger.Err(err), slog.String("err_code", deriveErrorCode(err)))
	}
	attrs = append(attrs, s.extra...)
	logger.LogEvent(tghelpers.WithHandler(c, s.name), logger.TG, lvl, "handler.handled", attrs...)
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// normalizeHandlerName lowercases a command or key and replaces spaces with underscores.
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode prefers a Code() reported by the error chain, then the
// Telegram API status, and falls back to INTERNAL.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return "TG_" + strconv.Itoa(apiErr.Code)
	}
	return "INTERNAL"
}
