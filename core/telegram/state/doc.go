// Package state tracks, per user, which reply the bot is waiting for.
// It knows nothing about what a state means; callers own the dispatch table.
package state
