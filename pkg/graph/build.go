package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dtnitsch/complexportal/pkg/parser"
)

// ParticipantsField lists complex members as "ID(stoichiometry)|ID(...)".
const ParticipantsField = "Identifiers (and stoichiometry) of molecules in complex"

// ComplexNamespace is the namespace of complex accession nodes.
const ComplexNamespace = "complexportal"

// Build drains records into a graph: one complex node per row and a
// hasComponent edge to every listed participant. Rows without an
// identifier are ignored. A table without a participants column yields
// complex nodes only.
func Build(records *parser.Records, idField, name, version string) (*Graph, error) {
	if !slices.Contains(records.Fields(), idField) {
		return nil, fmt.Errorf("identifier field %q not found in header %q", idField, records.Fields())
	}

	g := New(name, version)
	for records.Next() {
		rec := records.Record()
		id := strings.TrimSpace(rec.Get(idField))
		if id == "" {
			continue
		}
		complexNode := Node{Function: FuncComplex, Namespace: ComplexNamespace, Name: id}
		g.AddNode(complexNode)

		for _, member := range ParseParticipants(rec.Get(ParticipantsField)) {
			g.AddEdge(complexNode, RelHasComponent, member)
		}
	}
	if err := records.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseParticipants splits a participants cell into nodes. Stoichiometry
// suffixes are dropped and duplicates removed.
func ParseParticipants(cell string) []Node {
	var nodes []Node
	seen := make(map[Node]bool)
	for _, part := range strings.Split(cell, "|") {
		id := strings.TrimSpace(part)
		if i := strings.IndexByte(id, '('); i >= 0 {
			id = strings.TrimSpace(id[:i])
		}
		if id == "" || id == "-" {
			continue
		}
		n := ClassifyParticipant(id)
		if seen[n] {
			continue
		}
		seen[n] = true
		nodes = append(nodes, n)
	}
	return nodes
}

// ClassifyParticipant maps an identifier to its BEL function and
// namespace. Anything unrecognised is treated as a UniProt accession.
func ClassifyParticipant(id string) Node {
	switch {
	case strings.HasPrefix(id, "CHEBI:"):
		return Node{Function: FuncChem, Namespace: "chebi", Name: strings.TrimPrefix(id, "CHEBI:")}
	case strings.HasPrefix(id, "CPX-"):
		return Node{Function: FuncComplex, Namespace: ComplexNamespace, Name: id}
	case strings.HasPrefix(id, "URS"):
		return Node{Function: FuncRNA, Namespace: "rnacentral", Name: id}
	default:
		return Node{Function: FuncProtein, Namespace: "uniprot", Name: id}
	}
}
