package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// envelopeVersion is bumped if the on-disk layout ever changes shape.
const envelopeVersion = 1

// envelope is the on-disk format: a version field plus raw entries, so
// individual values stay opaque to the store.
type envelope struct {
	Version int                        `json:"version"`
	Entries map[string]json.RawMessage `json:"entries"`
}

// FileStore keeps all entries in a single JSON file. Writes go through a
// temp file and rename so a crash never leaves a half-written store.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

// OpenFileStore loads the store at path, treating a missing file as empty.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, entries: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	if env.Entries != nil {
		fs.entries = env.Entries
	}
	return fs, nil
}

func (fs *FileStore) Get(key string, out any) (bool, error) {
	fs.mu.Lock()
	raw, ok := fs.entries[key]
	fs.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (fs *FileStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.entries[key] = raw
	return fs.flushLocked()
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.entries[key]; !ok {
		return nil
	}
	delete(fs.entries, key)
	return fs.flushLocked()
}

func (fs *FileStore) flushLocked() error {
	env := envelope{Version: envelopeVersion, Entries: fs.entries}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}
