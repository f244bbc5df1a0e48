package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileMatchesSum(t *testing.T) {
	data := []byte("HRDB\x00\x00\x00\x00")
	path := filepath.Join(t.TempDir(), "2026-3-14")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("File = %s, Sum = %s", got, Sum(data))
	}
	if len(got) != 64 {
		t.Errorf("digest length = %d", len(got))
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestETag(t *testing.T) {
	if got := ETag(""); got != "" {
		t.Errorf("ETag(\"\") = %q", got)
	}
	if got := ETag("ab12"); got != `"ab12"` {
		t.Errorf("ETag = %q", got)
	}
}
