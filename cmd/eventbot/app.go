package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/bootstrap"
	coreconfig "github.com/m3rciful/eventbot/core/config"
	coretelegram "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/router"
	"github.com/m3rciful/eventbot/core/telegram/state"
	"github.com/m3rciful/eventbot/internal/bot"
	"github.com/m3rciful/eventbot/internal/broadcast"
	"github.com/m3rciful/eventbot/internal/diary"
)

const broadcastPause = 50 * time.Millisecond

const slowDownText = "Please slow down a little. ⏳"

type app struct {
	cfg       *coreconfig.Config
	infra     *bootstrap.Result
	registry  *coretelegram.Registry
	handlers  *bot.Handlers
	sender    *botSender
	scheduler *broadcast.Scheduler
}

func newApp(cfg *coreconfig.Config) (*app, error) {
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Diary.Location()
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	entries := diary.NewService(infra.Store, diary.WithLocation(loc))
	conv := bot.NewConversation(entries, state.NewMemoryManager(), bot.Renderer{EmojiNumbers: cfg.Diary.EmojiNumbers})

	a := &app{cfg: cfg, infra: infra, registry: coretelegram.NewRegistry(), sender: &botSender{}}
	caster := broadcast.New(entries, a.sender, broadcast.Options{
		Text:   bot.BroadcastText,
		Markup: bot.Menu(),
		Pause:  broadcastPause,
	})

	var manual bot.Broadcaster
	if cfg.Telegram.AdminID != 0 {
		manual = caster
	}
	a.handlers = bot.NewHandlers(conv, manual)
	if err := a.handlers.Register(a.registry); err != nil {
		return nil, errors.Join(err, infra.Close())
	}

	if cfg.Broadcast.Enabled {
		bloc, err := cfg.Broadcast.Location()
		if err != nil {
			return nil, errors.Join(err, infra.Close())
		}
		a.scheduler, err = broadcast.NewScheduler(cfg.Broadcast.Schedule, bloc, caster.Run)
		if err != nil {
			return nil, errors.Join(err, infra.Close())
		}
	}
	return a, nil
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, func(c tele.Context) error {
			return c.Send(slowDownText)
		}),
		Routes: func(reg *coretelegram.Registry) []coretelegram.Route {
			routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
			routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
			return append(routes, router.TextRoutes(a.handlers, reg, router.TextOptions{})...)
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.sender.bot.Store(rt.Bot)
			if a.scheduler != nil {
				a.scheduler.Start(ctx)
			}
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.scheduler != nil {
				a.scheduler.Stop()
			}
			a.sender.bot.Store(nil)
			return nil
		},
	}, nil
}

func (a *app) Close() error {
	return a.infra.Close()
}

// botSender forwards to the bot once the runtime has created it.
type botSender struct {
	bot atomic.Pointer[tele.Bot]
}

func (s *botSender) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	b := s.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("bot not started")
	}
	return b.Send(to, what, opts...)
}
