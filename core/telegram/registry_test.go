package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/eventbot/core/config"
	"github.com/m3rciful/eventbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegisterActionSharesHandler(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAction("/addevent", "add_event", commands.Command{
		Description: "Add an event",
		Handler:     noop,
	}))
	_, cmd, ok := reg.LookupCommand("addevent")
	require.True(t, ok)
	cb, ok := reg.GetCallback("add_event")
	require.True(t, ok)
	require.NotNil(t, cmd.Handler)
	require.NotNil(t, cb)
	require.Equal(t, []string{"add_event"}, reg.ListCallbacks())
}

func TestRegisterCommandRejectsDuplicatesAndBadNames(t *testing.T) {
	reg := NewRegistry()
	cmd := commands.Command{Description: "Start", Handler: noop}
	require.NoError(t, reg.RegisterCommand("/start", cmd))
	require.Error(t, reg.RegisterCommand("/start", cmd))
	require.Error(t, reg.RegisterCommand("start", cmd))
	require.Error(t, reg.RegisterCommand("/empty", commands.Command{Handler: noop}))
	require.Error(t, reg.RegisterCallback("", noop))
}

func TestListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Description: "Start", Handler: noop}))
	require.NoError(t, reg.RegisterCommand("/broadcast", commands.Command{Description: "Broadcast", Handler: noop, AdminOnly: true}))
	visible := reg.ListCommands(true)
	require.Equal(t, []tele.Command{{Text: "start", Description: "Start"}}, visible)
	require.Len(t, reg.ListCommands(false), 2)
}

func TestLookupCommandAlias(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/myevents", commands.Command{
		Description: "Show events",
		Handler:     noop,
		Aliases:     []string{"My Events"},
	}))
	key, _, ok := reg.LookupCommand("my events")
	require.True(t, ok)
	require.Equal(t, "/myevents", key)
	_, _, ok = reg.LookupCommand("")
	require.False(t, ok)
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)

	lp, ok := BuildPoller(PollerOptions{}).(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, "10s", lp.Timeout.String())
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, len(mws))
		for i, mw := range mws {
			out[i] = mw.Name
		}
		return out
	}
	require.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}
	require.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil)))
}
