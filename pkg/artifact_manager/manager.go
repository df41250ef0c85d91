package artifact_manager

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// StdoutPath is the explicit alias for writing to standard output.
	StdoutPath = "-"
	// GzipExt marks artifacts that are written and read gzip-compressed.
	GzipExt = ".gz"
)

// VersionReader extracts the version marker from an artifact stream.
type VersionReader interface {
	ReadVersion(r io.Reader) (string, error)
}

// Manager handles creation of output artifacts and decides whether an
// existing artifact is still current for a given input digest.
type Manager struct {
	stdout io.Writer
	logger *slog.Logger
}

// NewManager creates a Manager writing stdout artifacts to stdout. A nil
// logger discards debug output.
func NewManager(stdout io.Writer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{stdout: stdout, logger: logger}
}

// IsStdout reports whether path selects standard output: empty or "-".
func IsStdout(path string) bool {
	p := strings.TrimSpace(path)
	return p == "" || p == StdoutPath
}

// IsCurrent reports whether the artifact at path carries digest as its
// version marker. It never fails: an empty digest, a stdout destination,
// a missing or unreadable file, and a malformed artifact all count as
// not current.
func (m *Manager) IsCurrent(path, digest string, reader VersionReader) bool {
	if digest == "" || IsStdout(path) {
		return false
	}

	f, err := m.Open(path)
	if err != nil {
		m.logger.Debug("artifact not readable; regenerating", "path", path, "error", err)
		return false
	}
	defer f.Close()

	version, err := reader.ReadVersion(f)
	if err != nil {
		m.logger.Debug("artifact version not found; regenerating", "path", path, "error", err)
		return false
	}
	return version == digest
}

// Open opens an artifact for reading, decompressing .gz files.
func (m *Manager) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error opening artifact: %w", err)
	}
	if !strings.HasSuffix(path, GzipExt) {
		return f, nil
	}

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error reading gzip artifact: %w", err)
	}
	return &gzipReadCloser{Reader: zr, file: f}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

// Artifact is an output being written. Content goes to a staging file and
// only replaces the destination on Commit; Close without Commit discards
// it.
type Artifact struct {
	w         io.Writer
	zw        *gzip.Writer
	buf       *bufio.Writer
	file      *os.File
	dest      string
	committed bool
	closed    bool
}

func (a *Artifact) Write(p []byte) (int, error) {
	return a.w.Write(p)
}

// Path returns the destination path, or "-" for stdout.
func (a *Artifact) Path() string {
	if a.file == nil {
		return StdoutPath
	}
	return a.dest
}

// Create opens a new artifact for path. Empty or "-" writes to stdout.
func (m *Manager) Create(path string) (*Artifact, error) {
	if IsStdout(path) {
		buf := bufio.NewWriter(m.stdout)
		return &Artifact{w: buf, buf: buf}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}

	a := &Artifact{file: f, dest: path}
	a.buf = bufio.NewWriter(f)
	a.w = a.buf
	if strings.HasSuffix(path, GzipExt) {
		a.zw = gzip.NewWriter(a.buf)
		a.w = a.zw
	}
	return a, nil
}

// Commit flushes the artifact and moves it into place.
func (a *Artifact) Commit() error {
	if a.closed {
		return errors.New("artifact already closed")
	}
	if a.zw != nil {
		if err := a.zw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}
	if err := a.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush artifact: %w", err)
	}
	if a.file == nil {
		a.committed = true
		return nil
	}

	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	a.closed = true
	if err := os.Rename(a.file.Name(), a.dest); err != nil {
		_ = os.Remove(a.file.Name())
		return fmt.Errorf("failed to move artifact into %s: %w", a.dest, err)
	}
	a.committed = true
	return nil
}

// Close releases the artifact. An uncommitted file artifact is removed;
// after Commit it is a no-op.
func (a *Artifact) Close() error {
	if a.closed || a.file == nil {
		a.closed = true
		return nil
	}
	a.closed = true
	err := a.file.Close()
	if rmErr := os.Remove(a.file.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
