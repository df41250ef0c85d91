package graph

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dtnitsch/complexportal/pkg/parser"
)

const complexTSV = "#Complex ac\tRecommended name\tIdentifiers (and stoichiometry) of molecules in complex\n" +
	"CPX-1\tSMAD2-SMAD3-SMAD4 complex\tP84022(1)|Q13485(1)|Q15796(1)\n" +
	"CPX-2\tLigand complex\tP12345(2)|CHEBI:29105(0)|URS0000(1)|CPX-1(1)|P12345(1)\n" +
	"CPX-3\tOrphan\t-\n"

func buildSample(t *testing.T) *Graph {
	t.Helper()
	records, err := (&parser.Parser{}).Records(strings.NewReader(complexTSV))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	g, err := Build(records, "Complex ac", "Complex Portal", "abc123")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func TestParseParticipants(t *testing.T) {
	tests := []struct {
		cell string
		want []Node
	}{
		{"", nil},
		{"-", nil},
		{"P84022(1)", []Node{{FuncProtein, "uniprot", "P84022"}}},
		{"CHEBI:29105(0)|P84022(1)|P84022(2)", []Node{
			{FuncChem, "chebi", "29105"},
			{FuncProtein, "uniprot", "P84022"},
		}},
		{"CPX-9(1)|URS00004E52C5_9606(1)", []Node{
			{FuncComplex, ComplexNamespace, "CPX-9"},
			{FuncRNA, "rnacentral", "URS00004E52C5_9606"},
		}},
	}

	for _, tt := range tests {
		got := ParseParticipants(tt.cell)
		if len(got) != len(tt.want) {
			t.Errorf("ParseParticipants(%q) = %v, want %v", tt.cell, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("ParseParticipants(%q)[%d] = %v, want %v", tt.cell, i, got[i], tt.want[i])
			}
		}
	}
}

func TestBuild(t *testing.T) {
	g := buildSample(t)

	// 3 complexes + 3 SMADs + P12345 + CHEBI + URS
	if g.NumberOfNodes() != 9 {
		t.Errorf("NumberOfNodes() = %d, want 9: %v", g.NumberOfNodes(), g.Nodes())
	}
	// 3 for CPX-1, 4 for CPX-2 (P12345 listed twice)
	if g.NumberOfEdges() != 7 {
		t.Errorf("NumberOfEdges() = %d, want 7: %v", g.NumberOfEdges(), g.Edges())
	}

	wantNS := "complexportal,uniprot,chebi,rnacentral"
	if got := strings.Join(g.Namespaces(), ","); got != wantNS {
		t.Errorf("Namespaces() = %s, want %s", got, wantNS)
	}
}

func TestWriteBEL(t *testing.T) {
	g := buildSample(t)
	var buf bytes.Buffer
	if err := g.WriteBEL(&buf); err != nil {
		t.Fatalf("WriteBEL() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`SET DOCUMENT Name = "Complex Portal"`,
		`SET DOCUMENT Version = "abc123"`,
		`DEFINE NAMESPACE chebi AS PATTERN ".*"`,
		`complexAbundance(complexportal:"CPX-1") hasComponent p(uniprot:"P84022")`,
		`complexAbundance(complexportal:"CPX-2") hasComponent complexAbundance(complexportal:"CPX-1")`,
		`complexAbundance(complexportal:"CPX-2") hasComponent a(chebi:"29105")`,
		"\ncomplexAbundance(complexportal:\"CPX-3\")\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteBEL() output missing %q:\n%s", want, out)
		}
	}
}

func TestReadVersion_RoundTrip(t *testing.T) {
	g := buildSample(t)
	var buf bytes.Buffer
	if err := g.WriteBEL(&buf); err != nil {
		t.Fatalf("WriteBEL() error = %v", err)
	}
	got, err := ReadVersion(&buf)
	if err != nil {
		t.Fatalf("ReadVersion() error = %v", err)
	}
	if got != "abc123" {
		t.Errorf("ReadVersion() = %q, want abc123", got)
	}
}

func TestReadVersion_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"statement before version", "p(HGNC:AKT1) increases p(HGNC:EGFR)\nSET DOCUMENT Version = \"x\"\n"},
		{"no version", "SET DOCUMENT Name = \"x\"\n"},
		{"empty version", "SET DOCUMENT Version = \"\"\n"},
		{"namespace file", "[Namespace]\nVersionString=x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadVersion(strings.NewReader(tt.input)); !errors.Is(err, ErrMalformed) {
				t.Errorf("ReadVersion() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestEmitter_Emit(t *testing.T) {
	records, err := (&parser.Parser{}).Records(strings.NewReader(complexTSV))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	e := &Emitter{Name: "Complex Portal", Field: "Complex ac"}

	var buf bytes.Buffer
	if err := e.Emit(&buf, records, "v42"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	got, err := e.ReadVersion(&buf)
	if err != nil || got != "v42" {
		t.Errorf("ReadVersion() = %q, %v; want v42", got, err)
	}
}
