package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var validKey = regexp.MustCompile(`^[a-z0-9_.-]+$`)

// FileStore persists every key as a small file under a base directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written value behind.
type FileStore struct {
	mu       sync.Mutex
	basePath string
}

// NewFileStore creates a file store rooted at basePath
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{
		basePath: basePath,
	}, nil
}

// Get reads the value stored under key
func (fs *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	path, err := fs.keyToPath(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), true, nil
}

// Set writes value under key
func (fs *FileStore) Set(ctx context.Context, key, value string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(fs.basePath, "."+key+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file %s: %w", path, err)
	}
	return nil
}

// Remove deletes the file for key
func (fs *FileStore) Remove(ctx context.Context, key string) error {
	path, err := fs.keyToPath(key)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

// keyToPath maps a key to its file, rejecting keys that could escape basePath
func (fs *FileStore) keyToPath(key string) (string, error) {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(fs.basePath, key+".json"), nil
}
