package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTSV = "#Complex ac\tRecommended name\tTaxonomy identifier\n" +
	"CPX-1\tSMAD2-SMAD3-SMAD4 complex\t9606\n" +
	"CPX-2\tBRCA1-A complex\t9606\n"

func TestRecords_ParsesHeaderAndRows(t *testing.T) {
	p := &Parser{}
	records, err := p.Records(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	wantFields := []string{"Complex ac", "Recommended name", "Taxonomy identifier"}
	if got := records.Fields(); strings.Join(got, "|") != strings.Join(wantFields, "|") {
		t.Errorf("Fields() = %q, want %q", got, wantFields)
	}

	var ids []string
	for records.Next() {
		rec := records.Record()
		ids = append(ids, rec.Get("Complex ac"))
		if rec.Get("Taxonomy identifier") != "9606" {
			t.Errorf("Taxonomy identifier = %q, want 9606", rec.Get("Taxonomy identifier"))
		}
	}
	if err := records.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if strings.Join(ids, ",") != "CPX-1,CPX-2" {
		t.Errorf("ids = %v, want [CPX-1 CPX-2]", ids)
	}
}

func TestRecords_HeaderVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"no comment prefix", "a\tb\n1\t2\n", []string{"a", "b"}},
		{"only one prefix stripped", "##a\tb\n", []string{"#a", "b"}},
		{"crlf line ending", "#a\tb\r\n1\t2\r\n", []string{"a", "b"}},
		{"header without newline", "#a\tb", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := (&Parser{}).Records(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Records() error = %v", err)
			}
			if got := records.Fields(); strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Fields() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecords_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n", "#\n"} {
		_, err := (&Parser{}).Records(strings.NewReader(input))
		if !errors.Is(err, ErrNoHeader) {
			t.Errorf("Records(%q) error = %v, want ErrNoHeader", input, err)
		}
	}
}

func TestRecords_SkipsMalformedRows(t *testing.T) {
	input := "#id\tname\n" +
		"CPX-1\tone\n" +
		"CPX-2\n" +
		"CPX-3\tthree\textra\n" +
		"\n" +
		"CPX-4\tfour\n"

	records, err := (&Parser{}).Records(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	var ids []string
	for records.Next() {
		ids = append(ids, records.Record()["id"])
	}
	if err := records.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if strings.Join(ids, ",") != "CPX-1,CPX-4" {
		t.Errorf("ids = %v, want [CPX-1 CPX-4]", ids)
	}
	if records.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", records.Skipped())
	}
}

func TestRecords_SinglePass(t *testing.T) {
	records, err := (&Parser{}).Records(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	count := 0
	for records.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("first pass count = %d, want 2", count)
	}
	if records.Next() {
		t.Error("Next() after exhaustion = true, want false")
	}
	if records.Record() != nil {
		t.Error("Record() after exhaustion is not nil")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homo_sapiens.tsv")
	if err := os.WriteFile(path, []byte(sampleTSV), 0600); err != nil {
		t.Fatal(err)
	}

	records, err := (&Parser{}).Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !records.Next() {
		t.Fatalf("Next() = false, err = %v", records.Err())
	}
	if err := records.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if records.Next() {
		t.Error("Next() after Close = true, want false")
	}

	if _, err := (&Parser{}).Open(filepath.Join(t.TempDir(), "missing.tsv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want os.ErrNotExist", err)
	}
}
