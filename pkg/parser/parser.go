// Package parser turns the cached Complex Portal table into row records.
package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CommentPrefix marks the header line of Complex Portal tables.
const CommentPrefix = "#"

// ErrNoHeader is returned for input that has no header line.
var ErrNoHeader = errors.New("parser: missing header line")

// Record is one data row keyed by header field name.
type Record map[string]string

// Get returns the value of field, or "" when the row has no such field.
func (r Record) Get(field string) string {
	return r[field]
}

type Parser struct{}

// Records reads the header line from r and returns a lazy iterator over
// the remaining rows. The header loses one leading "#" if present and is
// split on tabs.
func (p *Parser) Records(r io.Reader) (*Records, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header = strings.TrimRight(header, "\r\n")
	header = strings.TrimPrefix(header, CommentPrefix)
	if strings.TrimSpace(header) == "" {
		return nil, ErrNoHeader
	}
	fields := strings.Split(header, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	reader := csv.NewReader(br)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	return &Records{reader: reader, fields: fields}, nil
}

// Open opens the table at path. The returned iterator must be closed.
func (p *Parser) Open(path string) (*Records, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	records, err := p.Records(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	records.closer = f
	return records, nil
}

// Records is a single-pass iterator in the style of bufio.Scanner:
//
//	for records.Next() {
//		rec := records.Record()
//	}
//	if err := records.Err(); err != nil { ... }
//
// Rows whose field count differs from the header are skipped and counted.
type Records struct {
	reader  *csv.Reader
	closer  io.Closer
	fields  []string
	current Record
	err     error
	skipped int
	done    bool
}

// Fields returns the header field names.
func (rs *Records) Fields() []string {
	return rs.fields
}

// Next advances to the next well-formed row. It returns false at the end
// of input or on the first read error.
func (rs *Records) Next() bool {
	if rs.done {
		return false
	}
	for {
		row, err := rs.reader.Read()
		if err == io.EOF {
			rs.finish(nil)
			return false
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rs.skipped++
			continue
		}
		if err != nil {
			rs.finish(fmt.Errorf("failed to read row: %w", err))
			return false
		}
		if len(row) != len(rs.fields) {
			rs.skipped++
			continue
		}

		rec := make(Record, len(row))
		for i, value := range row {
			rec[rs.fields[i]] = value
		}
		rs.current = rec
		return true
	}
}

func (rs *Records) finish(err error) {
	rs.done = true
	rs.current = nil
	rs.err = err
}

// Record returns the row read by the last call to Next.
func (rs *Records) Record() Record {
	return rs.current
}

// Err returns the first non-EOF error.
func (rs *Records) Err() error {
	return rs.err
}

// Skipped returns how many malformed rows have been passed over so far.
func (rs *Records) Skipped() int {
	return rs.skipped
}

// Close releases the underlying file when the iterator came from Open.
func (rs *Records) Close() error {
	rs.done = true
	if rs.closer == nil {
		return nil
	}
	err := rs.closer.Close()
	rs.closer = nil
	return err
}
