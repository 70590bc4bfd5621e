package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSystem defines the file operations the poster needs for reading
// catalog data and persisting posting state.
type FileSystem interface {
	// Exists checks if a file exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// ReadFile reads the full content of the file at the specified path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFileAtomic writes content to the specified path through a
	// temporary file and a rename, so readers never observe a partially
	// written file. The parent directory is created if missing.
	WriteFileAtomic(ctx context.Context, path string, content []byte, perm os.FileMode) error
}

type fileSystem struct{}

// New returns the operating-system backed FileSystem.
func New() FileSystem {
	return &fileSystem{}
}

func (f *fileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("path %s is a directory, not a file", path)
	}
	return true, nil
}

func (f *fileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (f *fileSystem) WriteFileAtomic(ctx context.Context, path string, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}
