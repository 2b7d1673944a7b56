// Package bot implements the event diary conversation on top of the
// telegram runtime: what each command does, which reply it waits for,
// and how results are worded.
package bot

import (
	"context"
	"strconv"

	"github.com/m3rciful/eventbot/core/telegram/state"
	"github.com/m3rciful/eventbot/internal/diary"
)

// Reply is what the bot answers with. Menu attaches the main keyboard.
type Reply struct {
	Text string
	Menu bool
	// Err is the operation failure behind Text, if any.
	Err error
}

type replyFunc func(ctx context.Context, key, text string) Reply

// Conversation drives the per-chat state machine. Commands may arm a
// pending step; the next text message consumes it and the chat is idle again.
type Conversation struct {
	entries *diary.Service
	states  state.Manager
	render  Renderer
	pending map[state.State]replyFunc
}

// NewConversation wires the entry service and state manager.
func NewConversation(entries *diary.Service, states state.Manager, render Renderer) *Conversation {
	c := &Conversation{
		entries: entries,
		states:  states,
		render:  render,
	}
	c.pending = map[state.State]replyFunc{
		StateAwaitingAdd:    c.completeAdd,
		StateAwaitingUpdate: c.completeUpdate,
		StateAwaitingDelete: c.completeDelete,
	}
	return c
}

// Pending reports whether the chat's next text completes a command.
func (c *Conversation) Pending(chatID int64) bool {
	return c.states.InProgress(chatID)
}

// Command handles a top-level action. Any step left pending from an earlier command is dropped.
func (c *Conversation) Command(ctx context.Context, chatID int64, action Action) Reply {
	c.states.Clear(chatID)
	key := storeKey(chatID)

	switch action {
	case ActionStart:
		if err := c.entries.Start(ctx, key); err != nil {
			return failed(action, err)
		}
		return Reply{Text: welcomeText, Menu: true}
	case ActionAdd:
		c.states.Set(chatID, StateAwaitingAdd)
		return Reply{Text: addPromptText}
	case ActionList:
		list, err := c.entries.Entries(ctx, key)
		if err != nil {
			return failed(action, err)
		}
		return Reply{Text: c.render.Listing(diary.Enumerate(list)), Menu: true}
	case ActionUpdate:
		return c.prompt(ctx, chatID, key, action, StateAwaitingUpdate, updatePromptText)
	case ActionDelete:
		return c.prompt(ctx, chatID, key, action, StateAwaitingDelete, deletePromptText)
	}
	return Reply{Text: menuText, Menu: true}
}

// Text handles a free-text message. Without a pending step it shows the menu.
func (c *Conversation) Text(ctx context.Context, chatID int64, text string) Reply {
	st := c.states.Take(chatID)
	if fn, ok := c.pending[st]; ok {
		return fn(ctx, storeKey(chatID), text)
	}
	return Reply{Text: menuText, Menu: true}
}

// prompt lists entries and arms next. An empty list short-circuits without a prompt.
func (c *Conversation) prompt(ctx context.Context, chatID int64, key string, action Action, next state.State, header string) Reply {
	list, err := c.entries.Entries(ctx, key)
	if err != nil {
		return failed(action, err)
	}
	listing := diary.Enumerate(list)
	if listing.Empty() {
		return Reply{Text: noEntriesText, Menu: true}
	}
	c.states.Set(chatID, next)
	return Reply{Text: header + "\n" + numbered(listing)}
}

func (c *Conversation) completeAdd(ctx context.Context, key, text string) Reply {
	if _, err := c.entries.Add(ctx, key, text); err != nil {
		return failed(ActionAdd, err)
	}
	return Reply{Text: addedText, Menu: true}
}

func (c *Conversation) completeUpdate(ctx context.Context, key, text string) Reply {
	if _, err := c.entries.Update(ctx, key, text); err != nil {
		return failed(ActionUpdate, err)
	}
	return Reply{Text: updatedText, Menu: true}
}

func (c *Conversation) completeDelete(ctx context.Context, key, text string) Reply {
	if _, err := c.entries.Delete(ctx, key, text); err != nil {
		return failed(ActionDelete, err)
	}
	return Reply{Text: deletedText, Menu: true}
}

func failed(action Action, err error) Reply {
	return Reply{Text: failureText(action, err), Menu: true, Err: err}
}

func storeKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
