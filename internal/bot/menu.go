package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/telegram/keyboard"
)

// Callback keys shared by the menu buttons and the registry.
const (
	CallbackAdd    = "add_event"
	CallbackList   = "my_events"
	CallbackUpdate = "update_event"
	CallbackDelete = "delete_event"
)

var menuButtons = []keyboard.InlineBtn{
	{Text: "Add Event 📝", Unique: CallbackAdd},
	{Text: "My Events 📚", Unique: CallbackList},
	{Text: "Update Event ✏️", Unique: CallbackUpdate},
	{Text: "Delete Event 🗑️", Unique: CallbackDelete},
}

// Menu builds the fixed four-action inline keyboard.
func Menu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow(menuButtons, 2)
}
