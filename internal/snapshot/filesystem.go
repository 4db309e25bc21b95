// internal/snapshot/filesystem.go
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
)

// FileStore writes snapshots under a root directory:
//
//	<root>/
//	  daily/
//	    all_languages/
//	      20241023.json
//	    python/
//	      20241023.json
//	  weekly/ ...
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at root. The directory is created lazily on first write.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Location returns the file path for key.
func (s *FileStore) Location(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Save writes records to key, creating intermediate directories.
// The write is atomic: a temp file in the destination directory is renamed into place.
func (s *FileStore) Save(_ context.Context, key string, records []model.Repository) error {
	destPath := s.Location(key)

	data, err := Encode(records)
	if err != nil {
		return &custom_errors.StorageWriteError{Path: destPath, Err: fmt.Errorf("encoding snapshot: %w", err)}
	}

	if err := writeFile(destPath, data); err != nil {
		return &custom_errors.StorageWriteError{Path: destPath, Err: err}
	}
	return nil
}

// Load reads the snapshot stored at key.
func (s *FileStore) Load(_ context.Context, key string) ([]model.Repository, error) {
	srcPath := s.Location(key)

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: srcPath, Err: err}
	}

	records, err := Decode(data)
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: srcPath, Err: fmt.Errorf("decoding snapshot: %w", err)}
	}
	return records, nil
}

func writeFile(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
