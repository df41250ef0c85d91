// Package graph models complexes and their components as a small BEL
// knowledge graph and serializes it as a BEL script.
package graph

import (
	"fmt"
	"strings"
)

// BEL abundance functions used for complex participants.
const (
	FuncComplex = "complexAbundance"
	FuncProtein = "p"
	FuncChem    = "a"
	FuncRNA     = "r"

	RelHasComponent = "hasComponent"
)

// Node is a BEL term: a function applied to a namespaced name.
type Node struct {
	Function  string
	Namespace string
	Name      string
}

// String renders the node as BEL, e.g. p(uniprot:"P84022").
func (n Node) String() string {
	return fmt.Sprintf("%s(%s:%s)", n.Function, n.Namespace, quote(n.Name))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Edge is a directed statement Source Relation Target.
type Edge struct {
	Source   Node
	Relation string
	Target   Node
}

func (e Edge) String() string {
	return fmt.Sprintf("%s %s %s", e.Source, e.Relation, e.Target)
}

// Graph keeps nodes and edges in insertion order so serialization is
// deterministic for a given input.
type Graph struct {
	Name    string
	Version string

	nodes     map[Node]bool
	nodeOrder []Node
	edges     map[Edge]bool
	edgeOrder []Edge
	namespace map[string]bool
	nsOrder   []string
}

func New(name, version string) *Graph {
	return &Graph{
		Name:      name,
		Version:   version,
		nodes:     make(map[Node]bool),
		edges:     make(map[Edge]bool),
		namespace: make(map[string]bool),
	}
}

// AddNode adds n if it is not present yet.
func (g *Graph) AddNode(n Node) {
	if g.nodes[n] {
		return
	}
	g.nodes[n] = true
	g.nodeOrder = append(g.nodeOrder, n)
	if !g.namespace[n.Namespace] {
		g.namespace[n.Namespace] = true
		g.nsOrder = append(g.nsOrder, n.Namespace)
	}
}

// AddEdge adds both endpoints and the edge. Duplicate edges are ignored.
func (g *Graph) AddEdge(source Node, relation string, target Node) {
	g.AddNode(source)
	g.AddNode(target)
	e := Edge{Source: source, Relation: relation, Target: target}
	if g.edges[e] {
		return
	}
	g.edges[e] = true
	g.edgeOrder = append(g.edgeOrder, e)
}

func (g *Graph) Nodes() []Node { return g.nodeOrder }

func (g *Graph) Edges() []Edge { return g.edgeOrder }

// Namespaces lists namespaces in first-use order.
func (g *Graph) Namespaces() []string { return g.nsOrder }

func (g *Graph) NumberOfNodes() int { return len(g.nodeOrder) }

func (g *Graph) NumberOfEdges() int { return len(g.edgeOrder) }
