package namespace

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dtnitsch/complexportal/models"
	"github.com/dtnitsch/complexportal/pkg/parser"
)

// Emitter converts Complex Portal rows into a namespace. Every identifier
// gets the same encoding label.
type Emitter struct {
	Header   Header
	Field    string
	Encoding string
}

// NewEmitter builds an Emitter from the namespace section of the config.
func NewEmitter(cfg models.NamespaceConfig) *Emitter {
	return &Emitter{
		Header: Header{
			Keyword:       cfg.Keyword,
			Name:          cfg.Name,
			Domain:        cfg.Domain,
			Species:       cfg.Species,
			QueryValueURL: cfg.QueryValueURL,
			AuthorName:    cfg.Author,
			AuthorContact: cfg.AuthorContact,
			CitationName:  cfg.Citation,
			CitationURL:   cfg.CitationURL,
			CaseSensitive: true,
			Cacheable:     true,
		},
		Field:    cfg.IdentifierField,
		Encoding: cfg.Encoding,
	}
}

// Kind names the artifact for log messages.
func (e *Emitter) Kind() string { return "namespace" }

// Emit drains records and writes the namespace with version as its
// VersionString. Rows with an empty identifier are ignored.
func (e *Emitter) Emit(w io.Writer, records *parser.Records, version string) error {
	if !slices.Contains(records.Fields(), e.Field) {
		return fmt.Errorf("identifier field %q not found in header %q", e.Field, records.Fields())
	}

	var values []Value
	for records.Next() {
		id := strings.TrimSpace(records.Record().Get(e.Field))
		if id == "" {
			continue
		}
		values = append(values, Value{Name: id, Encoding: e.Encoding})
	}
	if err := records.Err(); err != nil {
		return err
	}

	header := e.Header
	header.Version = version
	if err := Write(w, header, values); err != nil {
		return fmt.Errorf("failed to write namespace: %w", err)
	}
	return nil
}

// ReadVersion implements the artifact version reader for namespaces.
func (e *Emitter) ReadVersion(r io.Reader) (string, error) {
	return ReadVersion(r)
}
