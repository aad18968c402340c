package store

import (
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store. It backs tests and any deployment that does
// not want winners to survive a restart.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]json.RawMessage)}
}

func (ms *MemStore) Get(key string, out any) (bool, error) {
	ms.mu.Lock()
	raw, ok := ms.entries[key]
	ms.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (ms *MemStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	ms.entries[key] = raw
	ms.mu.Unlock()
	return nil
}

func (ms *MemStore) Delete(key string) error {
	ms.mu.Lock()
	delete(ms.entries, key)
	ms.mu.Unlock()
	return nil
}
