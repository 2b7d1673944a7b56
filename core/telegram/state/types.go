package state

// State identifies a conversation step.
type State string

// StateIdle means no reply is pending.
const StateIdle State = "idle"

// Manager stores at most one pending state per user.
type Manager interface {
	// Get returns the pending state or StateIdle.
	Get(userID int64) State
	// Set replaces any pending state. Setting StateIdle clears it.
	Set(userID int64, st State)
	// Take returns the pending state and resets the user to idle in one step,
	// so a reply is consumed exactly once.
	Take(userID int64) State
	Clear(userID int64)
	InProgress(userID int64) bool
}
