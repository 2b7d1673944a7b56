// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound message.
type Sent struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Context is a tele.Context backed by a fixed update. Methods the fake
// does not implement panic through the nil embedded interface.
type Context struct {
	tele.Context

	update tele.Update

	mu        sync.Mutex
	store     map[string]any
	sent      []Sent
	responses []*tele.CallbackResponse
	SendErr   error
}

// NewText builds a context for a private text message from chatID.
func NewText(updateID int, chatID int64, text string) *Context {
	user := &tele.User{ID: chatID, Username: "tester"}
	return &Context{update: tele.Update{
		ID: updateID,
		Message: &tele.Message{
			Text:   text,
			Sender: user,
			Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
		},
	}}
}

// NewCallback builds a context for an inline button press with the given unique key.
func NewCallback(updateID int, chatID int64, unique string) *Context {
	user := &tele.User{ID: chatID, Username: "tester"}
	return &Context{update: tele.Update{
		ID: updateID,
		Callback: &tele.Callback{
			ID:     "cb",
			Sender: user,
			Unique: unique,
			Message: &tele.Message{
				Chat: &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
			},
		},
	}}
}

func (c *Context) Update() tele.Update { return c.update }

func (c *Context) Message() *tele.Message {
	switch {
	case c.update.Message != nil:
		return c.update.Message
	case c.update.Callback != nil:
		return c.update.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.update.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.update.Message != nil:
		return c.update.Message.Sender
	case c.update.Callback != nil:
		return c.update.Callback.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if c.update.Message != nil {
		return c.update.Message.Text
	}
	return ""
}

func (c *Context) Send(what any, opts ...any) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	text, _ := what.(string)
	s := Sent{Text: text}
	for _, o := range opts {
		if rm, ok := o.(*tele.ReplyMarkup); ok {
			s.Markup = rm
		}
	}
	c.mu.Lock()
	c.sent = append(c.sent, s)
	c.mu.Unlock()
	return nil
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

// Sent returns the messages sent so far.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Responses returns the callback answers recorded so far.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}
