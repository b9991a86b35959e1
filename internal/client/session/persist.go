package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// PersistedStore is the durable mirror of the session, a single mutable
// record under a fixed key. The file implementation is the desktop analog of
// browser-local storage.
type PersistedStore interface {
	// Read returns the raw record. ok is false when no record exists.
	Read() (raw []byte, ok bool, err error)
	Write(raw []byte) error
	// Delete removes the record. Deleting an absent record is a no-op.
	Delete() error
}

const sessionFileName = "session.json"

// FileStore persists the session under the user config directory.
type FileStore struct {
	path string
}

// NewFileStore resolves the session file under dir, typically
// os.UserConfigDir()/atelier.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, sessionFileName)}, nil
}

func (s *FileStore) Read() ([]byte, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read session file: %w", err)
	}
	return raw, true, nil
}

func (s *FileStore) Write(raw []byte) error {
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// MemoryStore is an in-process PersistedStore for tests.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
	set bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	cp := make([]byte, len(s.raw))
	copy(cp, s.raw)
	return cp, true, nil
}

func (s *MemoryStore) Write(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = make([]byte, len(raw))
	copy(s.raw, raw)
	s.set = true
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	s.set = false
	return nil
}
