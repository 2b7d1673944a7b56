package diary

import (
	"errors"
	"strconv"
	"strings"
)

// DateLayout renders entry dates like "23 January 2024".
const DateLayout = "02 January 2006"

// updateSeparator splits an update reply into position and new text.
const updateSeparator = ": "

// Entry is one dated record. It has no identity beyond its place in a List.
type Entry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// List is a user's entries in insertion order.
type List []Entry

// Item is an entry paired with its 1-based position at render time.
type Item struct {
	Position int
	Entry
}

// Listing is the numbered view of a List.
type Listing struct {
	Items []Item
}

// Empty distinguishes "no entries yet" from a populated listing.
func (l Listing) Empty() bool { return len(l.Items) == 0 }

func (l List) clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Add appends a new entry dated today. Blank text is rejected.
func Add(list List, text, today string) (List, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return list, ErrEmptyInput
	}
	next := make(List, len(list), len(list)+1)
	copy(next, list)
	return append(next, Entry{Date: today, Text: text}), nil
}

// Enumerate numbers entries 1..N in list order.
func Enumerate(list List) Listing {
	items := make([]Item, len(list))
	for i, e := range list {
		items[i] = Item{Position: i + 1, Entry: e}
	}
	return Listing{Items: items}
}

// Update parses "<position>: <text>" and replaces the text of that entry.
// The date and the position of the entry do not change.
func Update(list List, raw string) (List, int, error) {
	parts := strings.SplitN(raw, updateSeparator, 2)
	if len(parts) != 2 {
		return list, 0, ErrBadFormat
	}
	pos, err := parsePosition(parts[0])
	if err != nil {
		return list, 0, err
	}
	text := strings.TrimSpace(parts[1])
	if text == "" {
		return list, 0, ErrEmptyInput
	}
	idx, err := toIndex(pos, len(list))
	if err != nil {
		return list, 0, err
	}
	next := list.clone()
	next[idx].Text = text
	return next, pos, nil
}

// Delete parses a 1-based position and removes that entry; later entries shift down by one.
func Delete(list List, raw string) (List, Entry, error) {
	pos, err := parsePosition(raw)
	if err != nil {
		return list, Entry{}, err
	}
	idx, err := toIndex(pos, len(list))
	if err != nil {
		return list, Entry{}, err
	}
	removed := list[idx]
	next := make(List, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	return next, removed, nil
}

func parsePosition(raw string) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		// An integer too large for int is still a number, just not a position.
		if numErr := (*strconv.NumError)(nil); errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, ErrOutOfRange
		}
		return 0, ErrNotANumber
	}
	return pos, nil
}

// toIndex is the only place a user-facing 1-based position becomes a slice index.
func toIndex(pos, n int) (int, error) {
	if pos < 1 || pos > n {
		return 0, ErrOutOfRange
	}
	return pos - 1, nil
}
