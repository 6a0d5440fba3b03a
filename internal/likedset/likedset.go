// Package likedset persists the set of definitions the local user has
// liked. The set is read once at startup and rewritten wholesale on
// every change; concurrent writers are not synchronized (last write
// wins, single-user-per-machine assumption).
package likedset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Set is a durable string set backed by a JSON file
type Set struct {
	filePath string

	mu  sync.Mutex
	ids map[string]bool
}

// Open loads the set from filePath, starting empty when the file does
// not exist yet
func Open(filePath string) (*Set, error) {
	s := &Set{
		filePath: filePath,
		ids:      make(map[string]bool),
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read liked set: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("corrupt liked set file: %w", err)
	}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s, nil
}

// Contains reports whether id is in the set
func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Add inserts id and flushes. Adding an existing id is a no-op.
func (s *Set) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return nil
	}
	s.ids[id] = true
	return s.flushLocked()
}

// Remove deletes id and flushes. Removing a missing id is a no-op.
func (s *Set) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ids[id] {
		return nil
	}
	delete(s.ids, id)
	return s.flushLocked()
}

// Len returns the number of liked ids
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Set) flushLocked() error {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode liked set: %w", err)
	}

	if dir := filepath.Dir(s.filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create liked set directory: %w", err)
		}
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write liked set: %w", err)
	}
	return nil
}
