package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"easystay_client/domain"
)

// ShowHotelRegistration gates the one-time post-password-change hotel
// registration prompt for managers. Cleared after use.
const ShowHotelRegistration = "showHotelRegistration"

// FileFlagStore persists UI flags as a small JSON file, the stand-in for
// the browser's durable client storage.
type FileFlagStore struct {
	path string

	mu    sync.RWMutex
	flags map[string]bool
}

func NewFileFlagStore(path string) (domain.FlagStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("flag state file path is required")
	}

	s := &FileFlagStore{
		path:  path,
		flags: make(map[string]bool),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileFlagStore) Get(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.flags[name]
}

func (s *FileFlagStore) Set(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flags[name] = value
	return s.persistLocked()
}

func (s *FileFlagStore) ClearFlag(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.flags, name)
	return s.persistLocked()
}

func (s *FileFlagStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read flag store file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.flags); err != nil {
		return fmt.Errorf("decode flag store file: %w", err)
	}
	return nil
}

func (s *FileFlagStore) persistLocked() error {
	b, err := json.Marshal(s.flags)
	if err != nil {
		return fmt.Errorf("encode flag store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create flag store dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write flag store file: %w", err)
	}
	return nil
}
