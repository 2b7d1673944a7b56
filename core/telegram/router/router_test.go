package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/commands"
	"github.com/m3rciful/eventbot/core/telegram/teletest"
)

type fakePending struct {
	active  map[int64]bool
	handled int
}

func (f *fakePending) InProgress(c tele.Context) bool { return f.active[c.Chat().ID] }

func (f *fakePending) Handle(c tele.Context) error {
	f.handled++
	delete(f.active, c.Chat().ID)
	return c.Send("pending:" + c.Text())
}

func newRegistry(t *testing.T) *tg.Registry {
	t.Helper()
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterAction("/myevents", "my_events", commands.Command{
		Description: "Show my events",
		Aliases:     []string{"my events"},
		Handler:     func(c tele.Context) error { return c.Send("listing") },
	}))
	reg.SetTextFallback(func(c tele.Context) error { return c.Send("menu") })
	return reg
}

func TestCallbackRouteDispatchesRegisteredKey(t *testing.T) {
	route := CallbackRoute(newRegistry(t), CallbackOptions{})
	c := teletest.NewCallback(1, 7, "my_events")
	require.NoError(t, route.Handler(c))
	require.Equal(t, "listing", c.Sent()[0].Text)
	require.Len(t, c.Responses(), 1)
}

func TestCallbackRouteUnknownKey(t *testing.T) {
	route := CallbackRoute(newRegistry(t), CallbackOptions{})
	c := teletest.NewCallback(1, 7, "nope")
	require.NoError(t, route.Handler(c))
	require.Empty(t, c.Sent())
	resp := c.Responses()
	require.Len(t, resp, 1)
	require.Equal(t, "Unsupported action", resp[0].Text)
}

func TestTextRoutePendingFirst(t *testing.T) {
	pending := &fakePending{active: map[int64]bool{7: true}}
	route := TextRoutes(pending, newRegistry(t), TextOptions{})[0]

	c := teletest.NewText(1, 7, "my events")
	require.NoError(t, route.Handler(c))
	require.Equal(t, "pending:my events", c.Sent()[0].Text)
	require.Equal(t, 1, pending.handled)

	c = teletest.NewText(2, 7, "my events")
	require.NoError(t, route.Handler(c))
	require.Equal(t, "listing", c.Sent()[0].Text)
}

func TestTextRouteFallback(t *testing.T) {
	route := TextRoutes(&fakePending{}, newRegistry(t), TextOptions{})[0]
	c := teletest.NewText(1, 7, "hello")
	require.NoError(t, route.Handler(c))
	require.Equal(t, "menu", c.Sent()[0].Text)
}

func TestTextRouteSkipsAdminAliases(t *testing.T) {
	reg := newRegistry(t)
	called := false
	require.NoError(t, reg.RegisterCommand("/broadcast", commands.Command{
		Description: "Send the weekly prompt now",
		AdminOnly:   true,
		Aliases:     []string{"broadcast"},
		Handler:     func(tele.Context) error { called = true; return nil },
	}))
	route := TextRoutes(nil, reg, TextOptions{})[0]
	c := teletest.NewText(1, 7, "broadcast")
	require.NoError(t, route.Handler(c))
	require.False(t, called)
	require.Equal(t, "menu", c.Sent()[0].Text)
}

type codedErr struct{ code string }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() string  { return e.code }

func TestDeriveErrorCode(t *testing.T) {
	require.Equal(t, "OUT_OF_RANGE", deriveErrorCode(codedErr{code: "out of range"}))
	require.Equal(t, "BAD_FORMAT", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{code: "BAD_FORMAT"})))
	require.Equal(t, "TG_403", deriveErrorCode(fmt.Errorf("send: %w", &tele.Error{Code: 403})))
	require.Equal(t, "INTERNAL", deriveErrorCode(errors.New("x")))
	require.Empty(t, deriveErrorCode(nil))
}

func TestNormalizeHandlerName(t *testing.T) {
	require.Equal(t, "addevent", normalizeHandlerName("/AddEvent"))
	require.Equal(t, "my_events", normalizeHandlerName(" my events "))
	require.Equal(t, "unknown", normalizeHandlerName(""))
}
