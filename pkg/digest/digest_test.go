package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/blake3"
)

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.tsv")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func blake3Hex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestFile_KnownAnswer(t *testing.T) {
	tests := []struct {
		algorithm string
		want      string
	}{
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"blake3", blake3Hex([]byte("abc"))},
	}

	path := writeFixture(t, []byte("abc"))
	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			d, err := New(tt.algorithm, 0)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got, err := d.File(path)
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("File() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFile_ChunkSizeDoesNotChangeDigest(t *testing.T) {
	if testing.Short() {
		t.Skip("10 MB fixture")
	}

	data := make([]byte, 10<<20)
	rand.New(rand.NewSource(42)).Read(data)
	path := writeFixture(t, data)

	for _, algorithm := range []string{"sha256", "blake3"} {
		t.Run(algorithm, func(t *testing.T) {
			var digests []string

			// Chunk size 1 goes through Reader to avoid one syscall per byte.
			d1, _ := New(algorithm, 1)
			sum, err := d1.Reader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Reader() error = %v", err)
			}
			digests = append(digests, sum)

			for _, size := range []int{64, 1 << 20} {
				d, _ := New(algorithm, size)
				sum, err := d.File(path)
				if err != nil {
					t.Fatalf("File() with chunk size %d error = %v", size, err)
				}
				digests = append(digests, sum)
			}

			for i := 1; i < len(digests); i++ {
				if digests[i] != digests[0] {
					t.Errorf("digest %d = %s, want %s", i, digests[i], digests[0])
				}
			}
		})
	}
}

func TestFile_NotFound(t *testing.T) {
	d, _ := New("sha256", 0)
	_, err := d.File(filepath.Join(t.TempDir(), "missing.tsv"))
	if err == nil {
		t.Fatal("File() error = nil, want not found")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("File() error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("File() error = %v, want fs.ErrNotExist", err)
	}
}

func TestNew_UnsupportedAlgorithm(t *testing.T) {
	if _, err := New("md5", 0); err == nil {
		t.Error("New(md5) error = nil, want error")
	}
}
