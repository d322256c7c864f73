// Package local implements blob.Store on a directory, typically a synced or
// mounted folder.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yurifrl/conciliador/pkg/blob"
)

type Dir struct {
	root string
}

var _ blob.Store = (*Dir)(nil)

func New(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("missing backup dir")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Upload(_ context.Context, localPath, remotePath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", localPath, err)
	}
	defer f.Close()

	target := d.path(remotePath)
	n, err := blob.WriteFileAtomic(target, f)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", remotePath, err)
	}
	return fmt.Sprintf("copied %d bytes to %s", n, target), nil
}

func (d *Dir) Download(_ context.Context, remotePath, localPath string) (string, error) {
	src := d.path(remotePath)
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", blob.ErrNotFound, remotePath)
		}
		return "", fmt.Errorf("open %q: %w", src, err)
	}
	defer f.Close()

	n, err := blob.WriteFileAtomic(localPath, f)
	if err != nil {
		return "", fmt.Errorf("download %q: %w", remotePath, err)
	}
	return fmt.Sprintf("restored %d bytes from %s", n, src), nil
}

func (d *Dir) path(remotePath string) string {
	return filepath.Join(d.root, filepath.FromSlash(filepath.Clean("/"+remotePath)))
}
