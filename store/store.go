// Package store persists the small amount of state that outlives a single
// wispr invocation.
package store

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("not found")

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
}

// FileStore keeps every key in its own dot-file below a directory.
// Values are written as a single line; only the first line is read back.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// NewHomeStore creates a FileStore rooted at the user's home directory.
func NewHomeStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "lookup home directory failed")
	}
	return NewFileStore(home), nil
}

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, "."+key)
}

// Get returns the first line stored under key, trimmed.
func (s *FileStore) Get(key string) (string, error) {
	f, err := os.Open(s.Path(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "open %s failed", s.Path(key))
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "read %s failed", s.Path(key))
	}
	return strings.TrimSpace(line), nil
}

// Put overwrites the value stored under key.
func (s *FileStore) Put(key, value string) error {
	if err := os.WriteFile(s.Path(key), []byte(value+"\n"), 0600); err != nil {
		return errors.Wrapf(err, "write %s failed", s.Path(key))
	}
	return nil
}

// Delete removes key. Deleting an absent key returns ErrNotFound.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.Path(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "remove %s failed", s.Path(key))
}

// MemoryStore is a Store that lives for the lifetime of the process.
type MemoryStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (s *MemoryStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = strings.TrimRight(value, "\n")
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return ErrNotFound
	}
	delete(s.values, key)
	return nil
}
