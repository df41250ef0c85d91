// Package pipeline ties the fetch, digest, freshness and emit stages into
// a single run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dtnitsch/complexportal/models"
	"github.com/dtnitsch/complexportal/pkg/artifact_manager"
	"github.com/dtnitsch/complexportal/pkg/caching"
	"github.com/dtnitsch/complexportal/pkg/db"
	"github.com/dtnitsch/complexportal/pkg/digest"
	"github.com/dtnitsch/complexportal/pkg/fetcher"
	"github.com/dtnitsch/complexportal/pkg/parser"
)

// ErrNoCache means the fetch failed and there is no earlier copy to fall
// back to. It is the only condition that aborts a run.
var ErrNoCache = errors.New("no cached data")

// Emitter turns records into one kind of versioned artifact and can read
// the version back from an artifact it wrote.
type Emitter interface {
	artifact_manager.VersionReader
	Kind() string
	Emit(w io.Writer, records *parser.Records, version string) error
}

// FetchRecorder stores the outcome of each download attempt.
type FetchRecorder interface {
	RecordFetch(rec db.FetchRecord) error
}

// Result describes what a run did.
type Result struct {
	Digest    string
	Fetched   bool
	Unchanged bool
	Skipped   int
}

type Pipeline struct {
	URL       string
	Offline   bool
	Cache     *caching.Cache
	Fetcher   *fetcher.Fetcher
	Digester  *digest.Digester
	Artifacts *artifact_manager.Manager
	Parser    *parser.Parser
	Recorder  FetchRecorder
	Logger    *slog.Logger
	Stderr    io.Writer
}

// New wires a Pipeline from config. stdout receives artifacts written to
// "-"; stderr receives operator messages.
func New(cfg *models.Config, stdout, stderr io.Writer, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := caching.NewCache(cfg.CachePath)
	if err != nil {
		return nil, err
	}
	digester, err := digest.New(cfg.DigestAlgorithm, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(stderr, nil))
	}

	return &Pipeline{
		URL:       cfg.URL,
		Cache:     cache,
		Fetcher:   fetcher.NewFetcher(cfg.ChunkSize, cfg.Timeout),
		Digester:  digester,
		Artifacts: artifact_manager.NewManager(stdout, logger),
		Parser:    &parser.Parser{},
		Logger:    logger,
		Stderr:    stderr,
	}, nil
}

// Refresh fetches the remote table into the cache and returns the digest
// of whatever the cache holds afterwards. A failed fetch is logged and the
// existing cache used; ErrNoCache is returned when there is none. A
// cancelled ctx aborts instead of falling back.
func (p *Pipeline) Refresh(ctx context.Context) (string, bool, error) {
	fetched := false
	if p.Offline {
		p.Logger.Info("offline mode; using cached data", "cache", p.Cache.Path())
	} else {
		p.Logger.Info("fetching", "url", p.URL, "cache", p.Cache.Path())
		err := p.Fetcher.FetchAndCache(ctx, p.URL, p.Cache)
		switch {
		case err == nil:
			fetched = true
		case ctx.Err() != nil || errors.Is(err, context.Canceled):
			return "", false, fmt.Errorf("fetch interrupted: %w", err)
		case errors.Is(err, fetcher.ErrNetwork):
			p.Logger.Warn(fmt.Sprintf("could not retrieve `%s`, will try with cached version", p.URL),
				"error", err, "timeout", fetcher.IsTimeout(err))
			p.record(db.FetchRecord{URI: p.URL, ErrorType: errorType(err), ErrorMessage: err.Error()})
		default:
			return "", false, err
		}
	}

	sum, err := p.Digester.File(p.Cache.Path())
	if errors.Is(err, digest.ErrNotFound) {
		return "", fetched, fmt.Errorf("%w at `%s`; unable to continue", ErrNoCache, p.Cache.Path())
	}
	if err != nil {
		return "", fetched, err
	}

	if fetched {
		rec := db.FetchRecord{URI: p.URL, Success: true, Digest: sum}
		if stats, err := p.Cache.Stats(); err == nil {
			rec.SizeBytes = stats.SizeBytes
		}
		p.record(rec)
	}
	p.Logger.Info("cache digest", "algorithm", p.Digester.Algorithm(), "digest", sum, "fetched", fetched)
	return sum, fetched, nil
}

func (p *Pipeline) record(rec db.FetchRecord) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.RecordFetch(rec); err != nil {
		p.Logger.Warn("failed to record fetch", "error", err)
	}
}

func errorType(err error) string {
	if fetcher.IsTimeout(err) {
		return "timeout"
	}
	return "network_error"
}

// Run refreshes the cache and writes the artifact to output ("" or "-"
// for stdout) unless output already carries the current digest.
func (p *Pipeline) Run(ctx context.Context, output string, e Emitter) (*Result, error) {
	sum, fetched, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := &Result{Digest: sum, Fetched: fetched}

	if !artifact_manager.IsStdout(output) && p.Artifacts.IsCurrent(output, sum, e) {
		fmt.Fprintf(p.Stderr, "`%s` has not changed; exiting\n", p.URL)
		fmt.Fprintf(p.Stderr, "delete or rename `%s` to force a re-run\n", output)
		result.Unchanged = true
		return result, nil
	}

	skipped, err := p.emit(output, sum, e)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped
	return result, nil
}

func (p *Pipeline) emit(output, sum string, e Emitter) (int, error) {
	records, err := p.Parser.Open(p.Cache.Path())
	if err != nil {
		return 0, err
	}
	defer records.Close()

	out, err := p.Artifacts.Create(output)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	if err := e.Emit(out, records, sum); err != nil {
		return 0, fmt.Errorf("failed to emit %s: %w", e.Kind(), err)
	}
	if err := out.Commit(); err != nil {
		return 0, err
	}

	if n := records.Skipped(); n > 0 {
		p.Logger.Warn("skipped malformed rows", "count", n, "cache", p.Cache.Path())
	}
	p.Logger.Info("wrote artifact", "kind", e.Kind(), "path", out.Path(), "version", sum)
	return records.Skipped(), nil
}
