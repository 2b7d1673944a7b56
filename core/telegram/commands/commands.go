// Package commands describes slash commands registered with the bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command and its menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never published.
	AdminOnly bool
	// Hidden commands work but are left out of the Telegram command menu.
	Hidden bool
	// Aliases are plain-text phrases that trigger the command, matched case-insensitively.
	Aliases []string
}

// Visible reports whether the command belongs in the published menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}

// Matches reports whether text equals one of the aliases, with or without a leading slash.
func (c Command) Matches(text string) bool {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	for _, alias := range c.Aliases {
		if strings.EqualFold(strings.TrimPrefix(alias, "/"), text) {
			return true
		}
	}
	return false
}
