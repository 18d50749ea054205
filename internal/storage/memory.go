package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store. It backs tests and the memory-only degraded
// mode when the durable store cannot be opened.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *Memory) Load(key string, v any) (bool, error) {
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("corrupted value for %q: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// SetRaw stores a raw JSON value without marshalling. Intended for tests
// that need to plant malformed or unexpected payloads.
func (m *Memory) SetRaw(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = json.RawMessage(raw)
}
