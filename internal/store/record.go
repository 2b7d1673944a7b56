// Package store implements diary.Store on Postgres and in memory.
// Both encode a user's list as a JSON array of {"date", "text"} objects.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/m3rciful/eventbot/internal/diary"
)

func encode(list diary.List) ([]byte, error) {
	if list == nil {
		list = diary.List{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return data, nil
}

func decode(data []byte) (diary.List, error) {
	list := diary.List{}
	if len(data) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return list, nil
}
