package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMatches(t *testing.T) {
	cmd := Command{Aliases: []string{"My Events", "/list"}}
	require.True(t, cmd.Matches("my events"))
	require.True(t, cmd.Matches(" MY EVENTS "))
	require.True(t, cmd.Matches("list"))
	require.True(t, cmd.Matches("/list"))
	require.False(t, cmd.Matches("events"))
}

func TestCommandVisible(t *testing.T) {
	require.True(t, Command{}.Visible())
	require.False(t, Command{Hidden: true}.Visible())
	require.False(t, Command{AdminOnly: true}.Visible())
}
