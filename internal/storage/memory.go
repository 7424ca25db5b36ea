package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"cli-page/internal/page"
)

var errClosed = errors.New("store closed")

// Memory is a process-local store. Documents go through the codec like in
// the persistent backends.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	saves  int
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) (page.Document, bool, error) {
	m.mu.Lock()
	data, ok := m.data[key]
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return page.Document{}, false, errClosed
	}
	if !ok {
		return page.Document{}, false, nil
	}
	doc, err := Decode(data)
	if err != nil {
		return page.Document{}, false, err
	}
	return doc, true, nil
}

func (m *Memory) Save(_ context.Context, key string, doc page.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.data[key] = data
	m.saves++
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return filterKeys(keys), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Saves counts successful Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Raw returns the stored bytes for key.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, ok
}
