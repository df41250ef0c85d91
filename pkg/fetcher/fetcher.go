package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dtnitsch/complexportal/pkg/caching"
)

const DefaultChunkSize = 1 << 20

// ErrNetwork matches every *NetworkError via errors.Is.
var ErrNetwork = errors.New("network error")

// NetworkError reports a transfer that could not complete. The cache is
// left exactly as it was before the fetch started.
type NetworkError struct {
	URI string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not retrieve %s: %v", e.URI, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

type Fetcher struct {
	client    *http.Client
	chunkSize int
	timeout   time.Duration
}

// NewFetcher returns a Fetcher reading chunkSize bytes at a time. A zero
// timeout means the transfer is bounded only by the caller's context.
func NewFetcher(chunkSize int, timeout time.Duration) *Fetcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Fetcher{
		client:    &http.Client{},
		chunkSize: chunkSize,
		timeout:   timeout,
	}
}

// FetchAndCache downloads uri into the cache. The body is streamed into a
// staging file; only a complete transfer rotates the old cache file to its
// backup slot and moves the new content into place. Transport failures and
// timeouts are returned as *NetworkError.
func (f *Fetcher) FetchAndCache(ctx context.Context, uri string, cache *caching.Cache) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	remote, err := f.open(ctx, uri)
	if err != nil {
		return &NetworkError{URI: uri, Err: err}
	}
	defer remote.Close()

	staged, err := cache.Stage()
	if err != nil {
		return err
	}
	stagedPath := staged.Name()
	committed := false
	defer func() {
		if !committed {
			cache.Discard(stagedPath)
		}
	}()

	if err := f.copyChunks(ctx, staged, remote); err != nil {
		staged.Close()
		var we *writeError
		if errors.As(err, &we) {
			return we.err
		}
		return &NetworkError{URI: uri, Err: err}
	}
	if err := staged.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := cache.Commit(stagedPath); err != nil {
		return err
	}
	committed = true
	return nil
}

// writeError marks failures on the local side of copyChunks so they are
// not reported as network errors.
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (f *Fetcher) copyChunks(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, f.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return &writeError{err: fmt.Errorf("failed to write staging file: %w", werr)}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
	}
}

func (f *Fetcher) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.openHTTP(ctx, uri)
	case "ftp":
		return openFTP(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

func (f *Fetcher) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// IsTimeout reports whether err came from a deadline rather than a refused
// or broken transfer.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
