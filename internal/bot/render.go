package bot

import (
	"strconv"
	"strings"

	"github.com/m3rciful/eventbot/internal/diary"
)

const (
	welcomeText      = "Hello! I'm your personal event recorder bot. 🤖\nChoose an option below to get started. 👇"
	menuText         = "Use the inline keyboard below to select a command:"
	addPromptText    = "What event would you like to record? 📝"
	updatePromptText = "Select an event to update by number: 📝 \n"
	deletePromptText = "Select an event to delete by number: 🗑️ \n"
	noEntriesText    = "You have no recorded events. 📭"

	addedText   = "Event recorded successfully! ✅"
	updatedText = "Event updated successfully! ✏️✅"
	deletedText = "Event deleted successfully! 🗑️✅"

	emptyAddText    = "You didn't specify an event. Please try again using /addevent. 🔁"
	emptyUpdateText = "Event details cannot be empty. 🚫 Please try again."
	badFormatText   = "Please enter a valid format: number: new details. 📝"
	notANumberText  = "Please enter a valid number. 🔢"
	outOfRangeText  = "Invalid event number. 🚫 Please try again with a valid event number."
	unavailableText = "Your events are unavailable right now. ⚠️ Please try again later."

	// notANumberUpdateText differs from badFormatText only by its trailing emoji.
	notANumberUpdateText = "Please enter a valid format: number: new details. 🔠"

	// BroadcastText is the weekly prompt sent to every known chat.
	BroadcastText = "What events happened with you this week? 🗓"
)

var keycaps = [...]string{"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣"}

// Renderer turns entry listings into message text.
type Renderer struct {
	// EmojiNumbers switches the "My Events" view to keycap digits.
	EmojiNumbers bool
}

// Listing renders the "My Events" view.
func (r Renderer) Listing(l diary.Listing) string {
	if l.Empty() {
		return noEntriesText
	}
	if !r.EmojiNumbers {
		return numbered(l)
	}
	lines := make([]string, len(l.Items))
	for i, it := range l.Items {
		lines[i] = EmojiNumber(it.Position) + " " + it.Date + ": " + it.Text
	}
	return strings.Join(lines, "\n")
}

// numbered renders "<pos>: <date>: <text>" lines. Update and delete prompts
// always use it since the user answers with the plain number.
func numbered(l diary.Listing) string {
	lines := make([]string, len(l.Items))
	for i, it := range l.Items {
		lines[i] = strconv.Itoa(it.Position) + ": " + it.Date + ": " + it.Text
	}
	return strings.Join(lines, "\n")
}

// EmojiNumber spells n with keycap digits, e.g. 12 -> "1️⃣2️⃣".
func EmojiNumber(n int) string {
	digits := strconv.Itoa(n)
	var b strings.Builder
	for _, d := range digits {
		if d < '0' || d > '9' {
			b.WriteRune(d)
			continue
		}
		b.WriteString(keycaps[d-'0'])
	}
	return b.String()
}

// failureText maps an operation error to its user-facing message.
func failureText(action Action, err error) string {
	switch diary.KindOf(err) {
	case diary.KindEmptyInput:
		if action == ActionAdd {
			return emptyAddText
		}
		return emptyUpdateText
	case diary.KindBadFormat:
		return badFormatText
	case diary.KindNotANumber:
		if action == ActionUpdate {
			return notANumberUpdateText
		}
		return notANumberText
	case diary.KindOutOfRange:
		return outOfRangeText
	default:
		return unavailableText
	}
}
