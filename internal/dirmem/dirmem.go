// Package dirmem remembers the last directory used by each operation.
package dirmem

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys used by the operations.
const (
	KeySaveDir   = "save_dir"
	KeyRenameDir = "rename_dir"
	KeyMergeDir  = "merge_dir"
)

// DefaultFileName is the conventional name of the memory file.
const DefaultFileName = "saved_dirs.txt"

// ErrInvalidEntry is returned for keys or paths that cannot be stored as
// one key=value line.
var ErrInvalidEntry = errors.New("invalid directory memory entry")

// Store gets and sets remembered directories.
//
//go:generate mockgen -source=dirmem.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	// Get returns the path remembered for key.
	Get(key string) (string, bool)
	// Set remembers path for key. An empty path is ignored.
	Set(key, path string) error
	// All returns a copy of every remembered entry.
	All() map[string]string
}

// FileStore keeps entries in a text file, one key=value per line.
// The whole file is rewritten on every Set.
type FileStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
	order   []string
}

// Open loads the store at path. A missing file is an empty store and
// malformed lines are skipped.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, entries: make(map[string]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open directory memory: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key == "" {
			continue
		}
		s.put(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read directory memory: %w", err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the path remembered for key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// All returns a copy of every entry.
func (s *FileStore) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Set remembers path for key and persists the store.
func (s *FileStore) Set(key, path string) error {
	if path == "" {
		return nil
	}
	if err := validate(key, path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.entries[key]
	s.put(key, path)
	if err := s.persist(); err != nil {
		// Keep memory consistent with disk.
		if existed {
			s.entries[key] = prev
		} else {
			s.remove(key)
		}
		return err
	}
	return nil
}

func (s *FileStore) put(key, value string) {
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = value
}

func (s *FileStore) remove(key string) {
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// persist replaces the file atomically: write a temp file, then rename.
func (s *FileStore) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory memory dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".saved_dirs-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := bufio.NewWriter(tmp)
	for _, k := range s.order {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, s.entries[k]); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write directory memory: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write directory memory: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync directory memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close directory memory: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace directory memory: %w", err)
	}
	return nil
}

func validate(key, path string) error {
	if key == "" || strings.ContainsAny(key, "=\r\n") {
		return fmt.Errorf("%w: key %q", ErrInvalidEntry, key)
	}
	if strings.ContainsAny(path, "\r\n") {
		return fmt.Errorf("%w: path contains a line break", ErrInvalidEntry)
	}
	return nil
}

// MemoryStore is a Store that is never persisted.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryStore) Set(key, path string) error {
	if path == "" {
		return nil
	}
	if err := validate(key, path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = path
	return nil
}

func (m *MemoryStore) All() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
