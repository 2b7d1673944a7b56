package bot

import "github.com/m3rciful/eventbot/core/telegram/state"

// States a chat can be in while the bot waits for the reply that completes a command.
const (
	StateAwaitingAdd    state.State = "awaiting_add"
	StateAwaitingUpdate state.State = "awaiting_update"
	StateAwaitingDelete state.State = "awaiting_delete"
)

// Action is a top-level user intent. A slash command and its menu button map to the same Action.
type Action string

// Actions reachable from the menu or a slash command.
const (
	ActionStart  Action = "start"
	ActionAdd    Action = "add"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
