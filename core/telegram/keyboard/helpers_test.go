package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "A", Unique: "a"},
		{Text: "B", Unique: "b"},
		{Text: "C", Unique: "c"},
	}
	markup := InlineButtonsNPerRow(buttons, 2)
	require.Len(t, markup.InlineKeyboard, 2)
	require.Len(t, markup.InlineKeyboard[0], 2)
	require.Len(t, markup.InlineKeyboard[1], 1)
	require.Equal(t, "C", markup.InlineKeyboard[1][0].Text)
	require.Equal(t, "c", markup.InlineKeyboard[1][0].Unique)
}

func TestInlineButtonsNPerRowSingleColumn(t *testing.T) {
	markup := InlineButtonsNPerRow([]InlineBtn{{Text: "A", Unique: "a"}, {Text: "B", Unique: "b"}}, 0)
	require.Len(t, markup.InlineKeyboard, 2)
}
