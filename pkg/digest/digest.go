// Package digest computes content fingerprints of cached files. The hex
// digest doubles as the version marker embedded in emitted artifacts.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/blake3"
)

const DefaultChunkSize = 1 << 20

// ErrNotFound is returned by File when there is nothing to hash.
var ErrNotFound = errors.New("digest: file not found")

// Digester streams content through a 256-bit hash in fixed-size chunks.
type Digester struct {
	algorithm string
	chunkSize int
}

// New returns a Digester for "sha256" or "blake3". A non-positive chunk
// size falls back to DefaultChunkSize.
func New(algorithm string, chunkSize int) (*Digester, error) {
	switch algorithm {
	case "", "sha256":
		algorithm = "sha256"
	case "blake3":
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", algorithm)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Digester{algorithm: algorithm, chunkSize: chunkSize}, nil
}

// Algorithm returns the configured hash name.
func (d *Digester) Algorithm() string {
	return d.algorithm
}

func (d *Digester) newHash() hash.Hash {
	if d.algorithm == "blake3" {
		return blake3.New()
	}
	return sha256.New()
}

// File returns the hex digest of the file at path. A missing file yields
// an error matching both ErrNotFound and fs.ErrNotExist.
func (d *Digester) File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	sum, err := d.Reader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return sum, nil
}

// Reader returns the hex digest of everything read from r.
func (d *Digester) Reader(r io.Reader) (string, error) {
	h := d.newHash()
	buf := make([]byte, d.chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
