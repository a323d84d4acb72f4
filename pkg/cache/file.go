package cache

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".json"

// FileCache implements Service with one file per key under a directory.
// Writes go to a temp file in the same directory and are renamed into place,
// so readers never observe a half-written entry.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed and returns a file-backed
// cache.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the backing directory.
func (fc *FileCache) Dir() string { return fc.dir }

func (fc *FileCache) path(key string) string {
	// PathEscape is injective, so Keys can recover the exact key.
	return filepath.Join(fc.dir, url.PathEscape(key)+fileExt)
}

func (fc *FileCache) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(fc.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache close: %w", err)
	}
	if err := os.Rename(tmp.Name(), fc.path(key)); err != nil {
		return fmt.Errorf("cache rename: %w", err)
	}
	return nil
}

func (fc *FileCache) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(fc.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache read: %w", err)
	}
	return b, nil
}

func (fc *FileCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(fc.path(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache delete %s: %w", key, err)
		}
	}
	return nil
}

func (fc *FileCache) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(fc.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fc *FileCache) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(fc.dir)
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close releases nothing; present to satisfy Service.
func (fc *FileCache) Close() error { return nil }
