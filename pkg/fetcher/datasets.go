package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Dataset is one species table offered on the Complex Portal index page.
type Dataset struct {
	Name string // e.g. homo_sapiens
	URL  string
}

// GetHtml fetches uri and parses it as an HTML document.
func (f *Fetcher) GetHtml(ctx context.Context, uri string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URI: uri, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ListDatasets scrapes the directory index at indexURL for .tsv links.
// Results are sorted by name and de-duplicated.
func (f *Fetcher) ListDatasets(ctx context.Context, indexURL string) ([]Dataset, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index URL: %w", err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	doc, err := f.GetHtml(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var datasets []Dataset
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !strings.HasSuffix(ref.Path, ".tsv") {
			return
		}
		resolved := base.ResolveReference(ref)
		name := strings.TrimSuffix(path.Base(resolved.Path), ".tsv")
		if seen[name] {
			return
		}
		seen[name] = true
		datasets = append(datasets, Dataset{Name: name, URL: resolved.String()})
	})

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}
