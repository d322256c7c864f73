package gcs

import "testing"

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix, remote, want string
	}{
		{"", "ledger.csv", "ledger.csv"},
		{"backups", "ledger.csv", "backups/ledger.csv"},
		{"backups/", "2025/ledger.csv", "backups/2025/ledger.csv"},
	}
	for _, tt := range tests {
		b := &Bucket{prefix: tt.prefix}
		if got := b.objectName(tt.remote); got != tt.want {
			t.Errorf("objectName(%q, %q) = %q, want %q", tt.prefix, tt.remote, got, tt.want)
		}
	}
}
