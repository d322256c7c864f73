// Package gcs implements blob.Store on a Google Cloud Storage bucket using
// application default credentials.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"github.com/yurifrl/conciliador/pkg/blob"
)

type Bucket struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ blob.Store = (*Bucket)(nil)

func New(ctx context.Context, bucket, prefix string) (*Bucket, error) {
	if bucket == "" {
		return nil, errors.New("missing backup bucket")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Bucket{client: client, bucket: bucket, prefix: prefix}, nil
}

func (b *Bucket) Close() error { return b.client.Close() }

func (b *Bucket) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := b.objectName(remotePath)
	w := b.client.Bucket(b.bucket).Object(name).NewWriter(ctx)
	n, err := io.Copy(w, f)
	if err != nil {
		w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("uploaded %d bytes to gs://%s/%s", n, b.bucket, name), nil
}

func (b *Bucket) Download(ctx context.Context, remotePath, localPath string) (string, error) {
	name := b.objectName(remotePath)
	r, err := b.client.Bucket(b.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: gs://%s/%s", blob.ErrNotFound, b.bucket, name)
		}
		return "", fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	n, err := blob.WriteFileAtomic(localPath, r)
	if err != nil {
		return "", fmt.Errorf("read GCS object: %w", err)
	}
	return fmt.Sprintf("downloaded %d bytes from gs://%s/%s", n, b.bucket, name), nil
}

func (b *Bucket) objectName(remotePath string) string {
	if b.prefix == "" {
		return remotePath
	}
	return path.Join(b.prefix, remotePath)
}
