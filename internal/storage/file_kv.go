package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileKV stores each entry as <key>.json in a shared state directory.
// Writes are atomic (temp file + rename) so a concurrent reader in another
// context never observes a partial entry.
type FileKV struct {
	dir string
}

// NewFileKV creates the state directory if needed and returns the store.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the watched state directory.
func (f *FileKV) Dir() string { return f.dir }

// FileName returns the entry file name for a key.
func FileName(key string) string { return key + ".json" }

// Path returns the absolute entry path for a key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, FileName(key))
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read entry %s: %w", key, err)
	}
	return data, true, nil
}

func (f *FileKV) Put(key string, data []byte) error {
	path := f.Path(key)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return wrapQuota(fmt.Errorf("write entry %s: %w", key, err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return wrapQuota(fmt.Errorf("replace entry %s: %w", key, err))
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	if err := os.Remove(f.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete entry %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Close() error { return nil }

// wrapQuota maps capacity errors onto ErrQuotaExceeded so the persister can
// apply its clear-and-retry policy.
func wrapQuota(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
