// Package caching keeps the local copy of a remote file and its backup.
package caching

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// BackupSuffix is appended to the cache path to name the backup slot.
const BackupSuffix = ".bak"

// Cache is a single cached file with one backup slot beside it.
//
// New content is staged in a temporary file in the same directory and only
// moved into place by Commit, so a failed or interrupted transfer never
// touches either the cache file or its backup.
type Cache struct {
	path string
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// NewCache creates a Cache for path. The parent directory is created if
// it doesn't exist.
func NewCache(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path}, nil
}

// Path returns the canonical cache path.
func (c *Cache) Path() string {
	return c.path
}

// BackupPath returns the path of the backup slot.
func (c *Cache) BackupPath() string {
	return c.path + BackupSuffix
}

// Exists reports whether the canonical cache file is present.
func (c *Cache) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Stats returns size and modification time of the cache file.
func (c *Cache) Stats() (*FileStats, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("error getting cache stats: %w", err)
	}
	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// Stage creates an empty temporary file next to the cache path. The caller
// writes the new content into it and then calls Commit or Discard.
func (c *Cache) Stage() (*os.File, error) {
	dir, base := filepath.Split(c.path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return f, nil
}

// Discard removes a staged file.
func (c *Cache) Discard(stagedPath string) {
	_ = os.Remove(stagedPath) // a stray hidden .part file is never read back
}

// Rotate moves the current cache file into the backup slot, replacing any
// previous backup. A missing cache file is not an error.
func (c *Cache) Rotate() error {
	err := os.Rename(c.path, c.BackupPath())
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to rotate %s to %s: %w", c.path, c.BackupPath(), err)
}

// Commit rotates the current cache file to the backup slot and moves the
// staged file onto the canonical path.
func (c *Cache) Commit(stagedPath string) error {
	if err := c.Rotate(); err != nil {
		return err
	}
	if err := os.Rename(stagedPath, c.path); err != nil {
		return fmt.Errorf("failed to move staged file into %s: %w", c.path, err)
	}
	return nil
}
