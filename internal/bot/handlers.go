package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/buildinfo"
	tg "github.com/m3rciful/eventbot/core/telegram"
	"github.com/m3rciful/eventbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/eventbot/core/telegram/helpers"
	"github.com/m3rciful/eventbot/internal/broadcast"
)

// Broadcaster triggers one broadcast run on demand.
type Broadcaster interface {
	Run(ctx context.Context) (broadcast.Result, error)
}

// Handlers adapts the Conversation to telebot.
type Handlers struct {
	conv      *Conversation
	broadcast Broadcaster
}

// NewHandlers builds the adapters. broadcaster may be nil, which hides /broadcast.
func NewHandlers(conv *Conversation, broadcaster Broadcaster) *Handlers {
	return &Handlers{conv: conv, broadcast: broadcaster}
}

type actionSpec struct {
	command     string
	callback    string
	action      Action
	description string
	aliases     []string
}

var actions = []actionSpec{
	{"/start", "", ActionStart, "Start the bot and show the menu", nil},
	{"/addevent", CallbackAdd, ActionAdd, "Record a new event", []string{"add event"}},
	{"/myevents", CallbackList, ActionList, "List recorded events", []string{"my events"}},
	{"/updateevent", CallbackUpdate, ActionUpdate, "Change an event's text", []string{"update event"}},
	{"/deleteevent", CallbackDelete, ActionDelete, "Delete an event", []string{"delete event"}},
}

// Register binds every command and its menu button to one handler and
// installs the text fallback.
func (h *Handlers) Register(reg *tg.Registry) error {
	for _, a := range actions {
		cmd := commands.Command{
			Handler:     h.Action(a.action),
			Description: a.description,
			Aliases:     a.aliases,
		}
		if err := reg.RegisterAction(a.command, a.callback, cmd); err != nil {
			return fmt.Errorf("register %s: %w", a.command, err)
		}
	}
	if h.broadcast != nil {
		err := reg.RegisterCommand("/broadcast", commands.Command{
			Handler:     h.Broadcast,
			Description: "Send the weekly prompt now",
			AdminOnly:   true,
			Hidden:      true,
		})
		if err != nil {
			return fmt.Errorf("register /broadcast: %w", err)
		}
	}
	reg.SetTextFallback(h.Handle)
	return nil
}

// Action returns the handler shared by a command and its button.
func (h *Handlers) Action(action Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		return send(c, h.conv.Command(ctx, tghelpers.ChatID(c), action))
	}
}

// InProgress reports whether the chat has a pending step.
func (h *Handlers) InProgress(c tele.Context) bool {
	return h.conv.Pending(tghelpers.ChatID(c))
}

// Handle feeds a text message into the conversation.
func (h *Handlers) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return send(c, h.conv.Text(ctx, tghelpers.ChatID(c), c.Text()))
}

// Broadcast runs the broadcast immediately and reports the counts to the caller.
func (h *Handlers) Broadcast(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res, err := h.broadcast.Run(ctx)
	if err != nil {
		return tghelpers.SendText(c, fmt.Sprintf("Broadcast failed: %v", err))
	}
	report := fmt.Sprintf("Broadcast finished: %d sent, %d failed of %d chats.\n%s",
		res.Sent, res.Failed, res.Total, buildinfo.String())
	return tghelpers.SendText(c, report)
}

func send(c tele.Context, r Reply) error {
	if r.Menu {
		return tghelpers.SendText(c, r.Text, Menu())
	}
	return tghelpers.SendText(c, r.Text)
}
