package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// StateFile is a synchronized key-value store persisted as a single JSON
// file. It stands in for the host's synced global state: values written here
// survive restarts.
type StateFile struct {
	path string

	mu     sync.Mutex
	values map[string][]byte
}

// OpenState loads (or initializes) the state file at path.
func OpenState(path string) (*StateFile, error) {
	s := &StateFile{path: path, values: make(map[string][]byte)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	raw := make(map[string]interface{})
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	for k, v := range raw {
		encoded, err := sonic.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encode state key %q: %w", k, err)
		}
		s.values[k] = encoded
	}
	return s, nil
}

// Get decodes the value stored under key into out. Returns false when the
// key is absent.
func (s *StateFile) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode state key %q: %w", key, err)
	}
	return true, nil
}

// Set stores a value under key and persists the file.
func (s *StateFile) Set(key string, value interface{}) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state key %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.flush()
}

// Delete removes a key and persists the file. Idempotent.
func (s *StateFile) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// flush writes the file via temp-and-rename so readers never observe a torn
// write. Must be called with the mutex held.
func (s *StateFile) flush() error {
	merged := make(map[string]interface{}, len(s.values))
	for k, raw := range s.values {
		var v interface{}
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode state key %q: %w", k, err)
		}
		merged[k] = v
	}

	data, err := sonic.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
