// Package namespace reads and writes BEL namespace (.belns) files.
//
// A namespace file is a set of INI-style header sections followed by a
// [Values] section listing one "value|encoding" pair per line:
//
//	[Namespace]
//	Keyword=complexportal
//	VersionString=3f1c...
//
//	[Values]
//	CPX-1|C
package namespace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

const (
	SectionNamespace  = "Namespace"
	SectionAuthor     = "Author"
	SectionCitation   = "Citation"
	SectionProcessing = "Processing"
	SectionValues     = "Values"

	DefaultDelimiter = "|"
)

// ErrMalformed is wrapped by every Parse failure.
var ErrMalformed = errors.New("malformed namespace")

// Value is one namespace entry.
type Value struct {
	Name     string
	Encoding string
}

// Header holds the metadata sections written before [Values].
type Header struct {
	Keyword         string
	Name            string
	Domain          string
	Species         string
	Version         string
	Created         time.Time
	QueryValueURL   string
	AuthorName      string
	AuthorContact   string
	CitationName    string
	CitationURL     string
	CaseSensitive   bool
	Cacheable       bool
	Delimiter       string
	DescriptionText string
}

// Document is a parsed namespace file. Sections keeps every key of every
// header section, including ones Header has no field for.
type Document struct {
	Sections map[string]map[string]string
	Values   []Value
}

// Version returns [Namespace] VersionString.
func (d *Document) Version() string {
	return d.Sections[SectionNamespace]["VersionString"]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Write serializes header and values to w. Values are de-duplicated by
// name (first encoding wins) and written in sorted order.
func Write(w io.Writer, h Header, values []Value) error {
	delim := h.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	created := h.Created
	if created.IsZero() {
		created = time.Now()
	}

	bw := bufio.NewWriter(w)
	section := func(name string, pairs ...string) {
		fmt.Fprintf(bw, "[%s]\n", name)
		for i := 0; i+1 < len(pairs); i += 2 {
			if pairs[i+1] == "" {
				continue
			}
			fmt.Fprintf(bw, "%s=%s\n", pairs[i], pairs[i+1])
		}
		bw.WriteString("\n")
	}

	section(SectionNamespace,
		"Keyword", h.Keyword,
		"NameString", h.Name,
		"DomainString", h.Domain,
		"SpeciesString", h.Species,
		"DescriptionString", h.DescriptionText,
		"VersionString", h.Version,
		"CreatedDateTime", created.UTC().Format(time.RFC3339),
		"QueryValueURL", h.QueryValueURL,
	)
	section(SectionAuthor,
		"NameString", h.AuthorName,
		"ContactInfoString", h.AuthorContact,
	)
	section(SectionCitation,
		"NameString", h.CitationName,
		"ReferenceURL", h.CitationURL,
	)
	section(SectionProcessing,
		"CaseSensitiveFlag", yesNo(h.CaseSensitive),
		"DelimiterString", delim,
		"CacheableFlag", yesNo(h.Cacheable),
	)

	fmt.Fprintf(bw, "[%s]\n", SectionValues)
	for _, v := range sortedUnique(values) {
		fmt.Fprintf(bw, "%s%s%s\n", v.Name, delim, v.Encoding)
	}
	return bw.Flush()
}

func sortedUnique(values []Value) []Value {
	seen := make(map[string]bool, len(values))
	out := make([]Value, 0, len(values))
	for _, v := range values {
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse reads a full namespace document.
func Parse(r io.Reader) (*Document, error) {
	return parse(r, true)
}

// ReadVersion returns the VersionString without reading the values.
func ReadVersion(r io.Reader) (string, error) {
	doc, err := parse(r, false)
	if err != nil {
		return "", err
	}
	version := doc.Version()
	if version == "" {
		return "", fmt.Errorf("%w: no VersionString in [%s]", ErrMalformed, SectionNamespace)
	}
	return version, nil
}

func parse(r io.Reader, withValues bool) (*Document, error) {
	doc := &Document{Sections: make(map[string]map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	delim := DefaultDelimiter
	current := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = strings.TrimSpace(line[1 : len(line)-1])
			if current == SectionValues {
				if _, ok := doc.Sections[SectionNamespace]; !ok {
					return nil, fmt.Errorf("%w: [%s] before [%s]", ErrMalformed, SectionValues, SectionNamespace)
				}
				if d := doc.Sections[SectionProcessing]["DelimiterString"]; d != "" {
					delim = d
				}
				if !withValues {
					return doc, nil
				}
				continue
			}
			if _, ok := doc.Sections[current]; !ok {
				doc.Sections[current] = make(map[string]string)
			}
			continue
		}

		if current == "" {
			return nil, fmt.Errorf("%w: line %d outside any section", ErrMalformed, lineNo)
		}

		if current == SectionValues {
			name, encoding, _ := strings.Cut(line, delim)
			doc.Values = append(doc.Values, Value{Name: name, Encoding: encoding})
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d is not key=value", ErrMalformed, lineNo)
		}
		doc.Sections[current][strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read namespace: %w", err)
	}

	if _, ok := doc.Sections[SectionNamespace]; !ok {
		return nil, fmt.Errorf("%w: no [%s] section", ErrMalformed, SectionNamespace)
	}
	return doc, nil
}
