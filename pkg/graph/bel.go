package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/complexportal/pkg/parser"
)

// ErrMalformed is wrapped by ReadVersion failures.
var ErrMalformed = errors.New("malformed BEL document")

const versionKey = "Version"

// WriteBEL serializes g as a BEL script. Components are written as
// statements; complexes without components as bare terms.
func (g *Graph) WriteBEL(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "SET DOCUMENT Name = %s\n", quote(g.Name))
	fmt.Fprintf(bw, "SET DOCUMENT %s = %s\n", versionKey, quote(g.Version))
	bw.WriteString("\n")

	for _, ns := range g.Namespaces() {
		fmt.Fprintf(bw, "DEFINE NAMESPACE %s AS PATTERN \".*\"\n", ns)
	}
	bw.WriteString("\n")

	linked := make(map[Node]bool)
	for _, e := range g.Edges() {
		linked[e.Source] = true
		linked[e.Target] = true
	}
	for _, n := range g.Nodes() {
		if !linked[n] {
			fmt.Fprintln(bw, n)
		}
	}
	for _, e := range g.Edges() {
		fmt.Fprintln(bw, e)
	}
	return bw.Flush()
}

// ReadVersion returns the value of SET DOCUMENT Version. The version must
// appear before the first statement.
func ReadVersion(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "SET":
			if v, ok := documentValue(line, versionKey); ok {
				return v, nil
			}
		case "DEFINE":
		default:
			return "", fmt.Errorf("%w: no document version before first statement", ErrMalformed)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read BEL document: %w", err)
	}
	return "", fmt.Errorf("%w: no document version", ErrMalformed)
}

// documentValue parses `SET DOCUMENT <key> = "<value>"`.
func documentValue(line, key string) (string, bool) {
	lhs, rhs, ok := strings.Cut(line, "=")
	if !ok {
		return "", false
	}
	parts := strings.Fields(lhs)
	if len(parts) != 3 || !strings.EqualFold(parts[1], "DOCUMENT") || !strings.EqualFold(parts[2], key) {
		return "", false
	}
	value := strings.TrimSpace(rhs)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
		value = strings.ReplaceAll(value, `\"`, `"`)
		value = strings.ReplaceAll(value, `\\`, `\`)
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// Emitter writes complexes and their components as a BEL script.
type Emitter struct {
	Name  string
	Field string
}

func (e *Emitter) Kind() string { return "graph" }

// Emit builds the graph from records and writes it with version as the
// document version.
func (e *Emitter) Emit(w io.Writer, records *parser.Records, version string) error {
	g, err := Build(records, e.Field, e.Name, version)
	if err != nil {
		return err
	}
	if err := g.WriteBEL(w); err != nil {
		return fmt.Errorf("failed to write BEL graph: %w", err)
	}
	return nil
}

func (e *Emitter) ReadVersion(r io.Reader) (string, error) {
	return ReadVersion(r)
}
