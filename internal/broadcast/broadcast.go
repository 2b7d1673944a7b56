// Package broadcast sends the periodic prompt to every chat that has a diary.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmhodges/clock"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/logger"
	"github.com/m3rciful/eventbot/core/telegram/netutil"
)

// UserLister yields the chats to send to.
type UserLister interface {
	UserIDs(ctx context.Context) ([]string, error)
}

// Sender delivers one message. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Result summarises one run.
type Result struct {
	Total  int
	Sent   int
	Failed int
}

// Options tunes a Broadcaster.
type Options struct {
	Text   string
	Markup *tele.ReplyMarkup
	// Pause spaces consecutive sends to stay under Telegram's flood limits.
	Pause time.Duration
	// MaxFloodWait caps how long a recipient waits out a 429 before its single retry.
	MaxFloodWait time.Duration
	Clock        clock.Clock
}

// Broadcaster fans a fixed message out to every stored chat.
type Broadcaster struct {
	users  UserLister
	sender Sender
	opts   Options
}

// New builds a Broadcaster.
func New(users UserLister, sender Sender, opts Options) *Broadcaster {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.MaxFloodWait <= 0 {
		opts.MaxFloodWait = 30 * time.Second
	}
	return &Broadcaster{users: users, sender: sender, opts: opts}
}

// Run sends the message to every chat once. A failed recipient is logged and
// skipped; only listing the chats or cancellation aborts the run.
func (b *Broadcaster) Run(ctx context.Context) (Result, error) {
	start := b.opts.Clock.Now()
	ids, err := b.users.UserIDs(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Broadcast, slog.LevelError, "broadcast.run",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		return Result{}, fmt.Errorf("broadcast: list users: %w", err)
	}

	res := Result{Total: len(ids)}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			b.logSummary(ctx, res, start, err)
			return res, err
		}
		if i > 0 && b.opts.Pause > 0 {
			select {
			case <-ctx.Done():
				b.logSummary(ctx, res, start, ctx.Err())
				return res, ctx.Err()
			case <-b.opts.Clock.After(b.opts.Pause):
			}
		}
		if err := b.deliver(ctx, id); err != nil {
			res.Failed++
			logger.LogEvent(ctx, logger.Broadcast, slog.LevelWarn, "broadcast.send",
				slog.String("status", "fail"),
				slog.String("chat_id", id),
				logger.Err(err),
			)
			continue
		}
		res.Sent++
	}
	b.logSummary(ctx, res, start, nil)
	return res, nil
}

// deliver sends to one chat, waiting out a flood-wait answer once.
func (b *Broadcaster) deliver(ctx context.Context, id string) error {
	err := b.sendOne(id)
	wait, flooded := netutil.RetryAfter(err)
	if !flooded {
		return err
	}
	logger.LogEvent(ctx, logger.Broadcast, slog.LevelWarn, "broadcast.flood_wait",
		slog.String("status", "retry"),
		slog.Duration("delay", wait),
	)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.opts.Clock.After(min(wait, b.opts.MaxFloodWait)):
	}
	return b.sendOne(id)
}

func (b *Broadcaster) sendOne(id string) error {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", id, err)
	}
	var opts []any
	if b.opts.Markup != nil {
		opts = append(opts, b.opts.Markup)
	}
	_, err = b.sender.Send(tele.ChatID(chatID), b.opts.Text, opts...)
	return err
}

func (b *Broadcaster) logSummary(ctx context.Context, res Result, start time.Time, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "cancelled"
	case res.Failed > 0 && res.Sent == 0:
		status = "fail"
	}
	logger.LogEvent(ctx, logger.Broadcast, slog.LevelInfo, "broadcast.run",
		slog.String("status", status),
		slog.Int("recipients", res.Total),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", b.opts.Clock.Since(start)),
	)
}
