package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/router"
	"github.com/m3rciful/eventbot/core/telegram/teletest"
	"github.com/m3rciful/eventbot/internal/broadcast"
)

type fakeBroadcaster struct {
	res   broadcast.Result
	err   error
	calls int
}

func (f *fakeBroadcaster) Run(context.Context) (broadcast.Result, error) {
	f.calls++
	return f.res, f.err
}

type wired struct {
	reg      *tg.Registry
	commands map[string]tele.HandlerFunc
	callback tele.HandlerFunc
	text     tele.HandlerFunc
}

func wire(t *testing.T, b Broadcaster) wired {
	t.Helper()
	f := newFixture(t, Renderer{})
	h := NewHandlers(f.conv, b)
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	w := wired{reg: reg, commands: map[string]tele.HandlerFunc{}}
	for _, r := range router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: 42}) {
		w.commands[r.Endpoint.(string)] = r.Handler
	}
	w.callback = router.CallbackRoute(reg, router.CallbackOptions{}).Handler
	w.text = router.TextRoutes(h, reg, router.TextOptions{})[0].Handler
	return w
}

func lastSent(t *testing.T, c *teletest.Context) teletest.Sent {
	t.Helper()
	sent := c.Sent()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func TestButtonAndCommandShareHandler(t *testing.T) {
	w := wire(t, nil)

	byButton := teletest.NewCallback(1, chat, CallbackAdd)
	require.NoError(t, w.callback(byButton))
	require.Equal(t, addPromptText, lastSent(t, byButton).Text)

	byCommand := teletest.NewText(2, chat, "/addevent")
	require.NoError(t, w.commands["/addevent"](byCommand))
	require.Equal(t, addPromptText, lastSent(t, byCommand).Text)

	reply := teletest.NewText(3, chat, "wrote tests")
	require.NoError(t, w.text(reply))
	got := lastSent(t, reply)
	require.Equal(t, addedText, got.Text)
	require.NotNil(t, got.Markup)

	list := teletest.NewCallback(4, chat, CallbackList)
	require.NoError(t, w.callback(list))
	require.Equal(t, "1: 23 January 2024: wrote tests", lastSent(t, list).Text)
}

func TestTextAliasAndFallback(t *testing.T) {
	w := wire(t, nil)

	c := teletest.NewText(1, chat, "my events")
	require.NoError(t, w.text(c))
	require.Equal(t, noEntriesText, lastSent(t, c).Text)

	c = teletest.NewText(2, chat, "what can you do?")
	require.NoError(t, w.text(c))
	require.Equal(t, menuText, lastSent(t, c).Text)
	require.NotNil(t, lastSent(t, c).Markup)
}

func TestUnknownButton(t *testing.T) {
	w := wire(t, nil)
	c := teletest.NewCallback(1, chat, "add_smile")
	require.NoError(t, w.callback(c))
	require.Empty(t, c.Sent())
	require.Equal(t, "Unsupported action", c.Responses()[0].Text)
}

func TestBroadcastCommand(t *testing.T) {
	b := &fakeBroadcaster{res: broadcast.Result{Total: 3, Sent: 2, Failed: 1}}
	w := wire(t, b)

	visible := w.reg.ListCommands(true)
	for _, cmd := range visible {
		require.NotEqual(t, "broadcast", cmd.Text)
	}
	require.Len(t, visible, 5)

	c := teletest.NewText(1, 7, "/broadcast")
	require.NoError(t, w.commands["/broadcast"](c))
	require.Zero(t, b.calls)

	c = teletest.NewText(2, 42, "/broadcast")
	require.NoError(t, w.commands["/broadcast"](c))
	require.Equal(t, 1, b.calls)
	require.Contains(t, lastSent(t, c).Text, "2 sent, 1 failed of 3 chats")

	b.err = errors.New("db down")
	c = teletest.NewText(3, 42, "/broadcast")
	require.NoError(t, w.commands["/broadcast"](c))
	require.Contains(t, lastSent(t, c).Text, "Broadcast failed")
}

func TestNoBroadcasterHidesCommand(t *testing.T) {
	w := wire(t, nil)
	_, ok := w.commands["/broadcast"]
	require.False(t, ok)
}

func TestSendErrorPropagates(t *testing.T) {
	w := wire(t, nil)
	c := teletest.NewText(1, chat, "/start")
	c.SendErr = errors.New("telegram: Forbidden (403)")
	require.Error(t, w.commands["/start"](c))
}
