package store

import (
	"context"
	"sort"
	"sync"

	"github.com/m3rciful/eventbot/internal/diary"
)

// Memory keeps encoded records in a map. Callers never share slices with it.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, userID string) (diary.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.records[userID]
	m.mu.RUnlock()
	if !ok {
		return diary.List{}, nil
	}
	return decode(data)
}

func (m *Memory) Put(ctx context.Context, userID string, list diary.List) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(list)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[userID] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Create(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[userID]; !ok {
		m.records[userID] = []byte("[]")
	}
	return nil
}

func (m *Memory) UserIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

var _ diary.Store = (*Memory)(nil)
