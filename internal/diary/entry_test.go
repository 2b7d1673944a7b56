package diary

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func sample(n int) List {
	list := make(List, n)
	for i := range list {
		list[i] = Entry{Date: fmt.Sprintf("%02d January 2024", i+1), Text: fmt.Sprintf("entry %d", i+1)}
	}
	return list
}

func TestAddAppendsToEnd(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		list := sample(n)
		next, err := Add(list, "  finished first draft ", "14 October 2026")
		require.NoError(t, err)
		require.Len(t, next, n+1)
		require.Equal(t, Entry{Date: "14 October 2026", Text: "finished first draft"}, next[n])
		require.Equal(t, sample(n), next[:n])
	}
}

func TestAddRejectsBlank(t *testing.T) {
	list := sample(2)
	for _, text := range []string{"", "   ", "\n\t"} {
		next, err := Add(list, text, "today")
		require.ErrorIs(t, err, ErrEmptyInput)
		require.Equal(t, sample(2), next)
	}
}

func TestAddDoesNotAliasInput(t *testing.T) {
	list := make(List, 1, 4)
	list[0] = Entry{Date: "d", Text: "t"}
	a, err := Add(list, "a", "d")
	require.NoError(t, err)
	b, err := Add(list, "b", "d")
	require.NoError(t, err)
	require.Equal(t, "a", a[1].Text)
	require.Equal(t, "b", b[1].Text)
}

func TestEnumerate(t *testing.T) {
	require.True(t, Enumerate(nil).Empty())

	listing := Enumerate(sample(3))
	require.False(t, listing.Empty())
	for i, item := range listing.Items {
		require.Equal(t, i+1, item.Position)
		require.Equal(t, fmt.Sprintf("entry %d", i+1), item.Text)
	}
}

func TestDeleteShiftsLaterEntries(t *testing.T) {
	const n = 4
	for i := 1; i <= n; i++ {
		list := sample(n)
		next, removed, err := Delete(list, fmt.Sprint(i))
		require.NoError(t, err)
		require.Len(t, next, n-1)
		require.Equal(t, list[i-1], removed)
		require.Equal(t, list[:i-1], next[:i-1])
		require.Equal(t, list[i:], next[i-1:])
		require.Equal(t, sample(n), list, "input must stay untouched")
	}
}

func TestDeleteErrors(t *testing.T) {
	list := sample(3)
	cases := map[string]error{
		"0":   ErrOutOfRange,
		"4":   ErrOutOfRange,
		"-1":  ErrOutOfRange,
		"abc": ErrNotANumber,
		"":    ErrNotANumber,
		"1.5": ErrNotANumber,
	}
	for raw, want := range cases {
		next, _, err := Delete(list, raw)
		require.ErrorIs(t, err, want, raw)
		require.Equal(t, sample(3), next)
	}
}

func TestDeleteAcceptsSurroundingSpace(t *testing.T) {
	next, removed, err := Delete(sample(2), " 2 ")
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, "entry 2", removed.Text)
}

func TestUpdateChangesOnlyText(t *testing.T) {
	list := sample(3)
	next, pos, err := Update(list, "2: new text")
	require.NoError(t, err)
	require.Equal(t, 2, pos)
	require.Equal(t, list[0], next[0])
	require.Equal(t, list[2], next[2])
	require.Equal(t, Entry{Date: list[1].Date, Text: "new text"}, next[1])
	require.Equal(t, "entry 2", list[1].Text, "input must stay untouched")
}

func TestUpdateSplitsOnFirstSeparator(t *testing.T) {
	next, _, err := Update(sample(1), "1: note: with colon")
	require.NoError(t, err)
	require.Equal(t, "note: with colon", next[0].Text)
}

func TestUpdateErrors(t *testing.T) {
	list := sample(3)
	cases := map[string]error{
		"2 new text": ErrBadFormat,
		"2:new text": ErrBadFormat,
		"two: text":  ErrNotANumber,
		"2: ":        ErrEmptyInput,
		"2:    ":     ErrEmptyInput,
		"0: text":    ErrOutOfRange,
		"4: text":    ErrOutOfRange,
	}
	for raw, want := range cases {
		next, _, err := Update(list, raw)
		require.ErrorIs(t, err, want, raw)
		require.Equal(t, sample(3), next)
	}
}

func TestOverflowingPositionIsOutOfRange(t *testing.T) {
	list := sample(1)
	for _, raw := range []string{"99999999999999999999", "-99999999999999999999"} {
		_, _, err := Delete(list, raw)
		require.ErrorIs(t, err, ErrOutOfRange, raw)
	}
	_, _, err := Update(list, "99999999999999999999: text")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestToIndex(t *testing.T) {
	idx, err := toIndex(1, 1)
	require.NoError(t, err)
	require.Zero(t, idx)

	_, err = toIndex(1, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestErrorKinds(t *testing.T) {
	wrapped := storeUnavailable("entries.get", fmt.Errorf("connection refused"))
	require.ErrorIs(t, wrapped, ErrStoreUnavailable)
	require.NotErrorIs(t, wrapped, ErrOutOfRange)
	require.Equal(t, KindStoreUnavailable, KindOf(fmt.Errorf("handler: %w", wrapped)))
	require.Contains(t, wrapped.Error(), "connection refused")
	require.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	require.Equal(t, "OUT_OF_RANGE", ErrOutOfRange.Code())
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	require.Equal(t, 2, k.size())
	unlockA()
	unlockB()
	require.Zero(t, k.size())
}
