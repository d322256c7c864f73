package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yurifrl/conciliador/pkg/blob"
)

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()
	d, err := New(filepath.Join(t.TempDir(), "backup"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	src := filepath.Join(work, "ledger.csv")
	if err := os.WriteFile(src, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Upload(ctx, src, "conciliador/ledger.csv"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	dst := filepath.Join(work, "restored", "ledger.csv")
	if _, err := d.Download(ctx, "conciliador/ledger.csv", dst); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("restored %q", data)
	}

	if _, err := d.Download(ctx, "missing.csv", dst); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPathStaysInsideRoot(t *testing.T) {
	d := &Dir{root: "/backup"}
	if got := d.path("../../etc/passwd"); got != filepath.Join("/backup", "etc", "passwd") {
		t.Errorf("path escaped root: %s", got)
	}
}
