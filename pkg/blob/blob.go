// Package blob defines the off-device backup store. It holds copies of
// locally persisted files and is never the source of truth during a session.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrEmptyObject = errors.New("blob is empty")
)

// Store copies named files to and from backup. The returned message is a
// human-readable summary of what happened.
type Store interface {
	Upload(ctx context.Context, localPath, remotePath string) (string, error)
	Download(ctx context.Context, remotePath, localPath string) (string, error)
}

// WriteFileAtomic streams r into a temporary sibling of path and renames it
// into place. Empty input is rejected and leaves path untouched.
func WriteFileAtomic(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("copy: %w", err)
	}
	if n == 0 {
		tmp.Close()
		return 0, ErrEmptyObject
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	return n, nil
}
