// Package callbacks decodes inline button payloads produced by telebot.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits a callback into its unique key and payload.
// Telebot encodes buttons as "\f<unique>|<data>" and fills Unique only
// when a handler was registered for that exact endpoint.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Payload returns the payload of the callback carried by c.
func Payload(c tele.Context) string {
	_, payload := Parse(c.Callback())
	return payload
}
