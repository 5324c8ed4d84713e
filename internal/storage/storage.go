// Package storage provides the file-backed JSON document store underneath
// conversation records and the topic/task/consent catalogs. Every document is
// one pretty-printed .json file; writes go through a temp file and rename so
// a crash never leaves a half-written record behind.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Storage is a JSON document store rooted at a base directory. Documents are
// addressed by path segments: {"conversations", "<session_id>"} maps to
// <base>/conversations/<session_id>.json.
type Storage struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*fileLock
}

// Info describes a stored document without reading it.
type Info struct {
	Key      string
	Size     int64
	Modified time.Time
}

// New creates a Storage rooted at basePath. The directory is created on
// first write, not here.
func New(basePath string) *Storage {
	return &Storage{
		basePath: basePath,
		locks:    make(map[string]*fileLock),
	}
}

// BasePath returns the root directory of the store.
func (s *Storage) BasePath() string {
	return s.basePath
}

func (s *Storage) filePath(path []string) string {
	parts := append([]string{s.basePath}, path...)
	return filepath.Join(parts...) + ".json"
}

func (s *Storage) dirPath(path []string) string {
	parts := append([]string{s.basePath}, path...)
	return filepath.Join(parts...)
}

// Get reads the document at path into v.
func (s *Storage) Get(ctx context.Context, path []string, v any) error {
	data, err := os.ReadFile(s.filePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", strings.Join(path, "/"), err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", strings.Join(path, "/"), err)
	}
	return nil
}

// Put writes v as the document at path. The write is atomic: marshal,
// write to a temp file in the same directory, rename over the target.
// Concurrent writers to the same document are serialized with a file lock.
func (s *Storage) Put(ctx context.Context, path []string, v any) error {
	target := s.filePath(path)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	lock := s.lockFor(target)
	if err := lock.acquire(); err != nil {
		return fmt.Errorf("lock %s: %w", strings.Join(path, "/"), err)
	}
	defer lock.release()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", strings.Join(path, "/"), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Delete removes the document at path. Deleting a missing document is not
// an error.
func (s *Storage) Delete(ctx context.Context, path []string) error {
	target := s.filePath(path)

	lock := s.lockFor(target)
	if err := lock.acquire(); err != nil {
		return fmt.Errorf("lock %s: %w", strings.Join(path, "/"), err)
	}
	defer lock.release()

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", strings.Join(path, "/"), err)
	}
	return nil
}

// List returns the keys of all documents directly under path.
func (s *Storage) List(ctx context.Context, path []string) ([]string, error) {
	entries, err := os.ReadDir(s.dirPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			keys = append(keys, name)
		} else if strings.HasSuffix(name, ".json") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}

// ListInfo returns size and modification time alongside each key under path.
func (s *Storage) ListInfo(ctx context.Context, path []string) ([]Info, error) {
	entries, err := os.ReadDir(s.dirPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Key:      strings.TrimSuffix(name, ".json"),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	return infos, nil
}

// Scan calls fn with the raw contents of every document directly under path.
// Unreadable files are skipped; an error from fn stops the scan.
func (s *Storage) Scan(ctx context.Context, path []string, fn func(key string, data json.RawMessage) error) error {
	dir := s.dirPath(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}

		if err := fn(strings.TrimSuffix(name, ".json"), json.RawMessage(data)); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether a document is present at path.
func (s *Storage) Exists(ctx context.Context, path []string) bool {
	_, err := os.Stat(s.filePath(path))
	return err == nil
}

func (s *Storage) lockFor(target string) *fileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[target]
	if !ok {
		lock = newFileLock(target)
		s.locks[target] = lock
	}
	return lock
}
