package caching

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func commitContent(t *testing.T, c *Cache, content string) {
	t.Helper()
	f, err := c.Stage()
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to write staged file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close staged file: %v", err)
	}
	if err := c.Commit(f.Name()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestCommit_FirstWriteHasNoBackup(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "data", "homo_sapiens.tsv"))
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	commitContent(t, c, "v1")

	if got := readFile(t, c.Path()); got != "v1" {
		t.Errorf("cache = %q, want %q", got, "v1")
	}
	if _, err := os.Stat(c.BackupPath()); !os.IsNotExist(err) {
		t.Errorf("backup exists after first commit, stat err = %v", err)
	}
}

func TestCommit_RotationInvariant(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "homo_sapiens.tsv"))
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	contents := []string{"v1", "v2", "v3", "v4"}
	for i, content := range contents {
		commitContent(t, c, content)
		if i == 0 {
			continue
		}
		if got := readFile(t, c.Path()); got != content {
			t.Errorf("after commit %d cache = %q, want %q", i+1, got, content)
		}
		if got := readFile(t, c.BackupPath()); got != contents[i-1] {
			t.Errorf("after commit %d backup = %q, want %q", i+1, got, contents[i-1])
		}
	}

	// No staging files left behind.
	entries, err := os.ReadDir(filepath.Dir(c.Path()))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only cache and backup", names)
	}
}

func TestRotate_MissingCacheIsNoop(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "homo_sapiens.tsv"))
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if err := c.Rotate(); err != nil {
		t.Errorf("Rotate() error = %v, want nil", err)
	}
	if c.Exists() {
		t.Error("Exists() = true, want false")
	}
}

func TestDiscard_LeavesCacheUntouched(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "homo_sapiens.tsv"))
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	commitContent(t, c, "good")

	f, err := c.Stage()
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	_, _ = f.WriteString("partial")
	_ = f.Close()
	c.Discard(f.Name())

	if got := readFile(t, c.Path()); got != "good" {
		t.Errorf("cache = %q, want %q", got, "good")
	}
	if _, err := os.Stat(f.Name()); !os.IsNotExist(err) {
		t.Errorf("staged file still present, stat err = %v", err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.SizeBytes != int64(len("good")) {
		t.Errorf("Stats().SizeBytes = %d, want %d", stats.SizeBytes, len("good"))
	}
}
