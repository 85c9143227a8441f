package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideBase is returned for paths that would resolve outside the storage root.
var ErrOutsideBase = errors.New("path escapes storage root")

// LocalStorage persists uploads and rendered exports on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures baseDir exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, errors.New("storage directory required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save writes data to the relative path and returns it.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}
	return relPath, nil
}

// Read returns the full contents of a stored file.
func (s *LocalStorage) Read(relPath string) ([]byte, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return data, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files whose modification time is older than ttl and returns their relative paths.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

func (s *LocalStorage) resolve(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", ErrOutsideBase
	}
	path := filepath.Join(s.baseDir, filepath.FromSlash(relPath))
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(filepath.Separator)) {
		return "", ErrOutsideBase
	}
	return path, nil
}
