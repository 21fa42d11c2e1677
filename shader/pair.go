package shader

import "strings"

// Pair is the source text of the two programmable stages.
type Pair struct {
	Vertex   string
	Fragment string
}

// Complete reports whether both sources contain non-whitespace text.
func (p Pair) Complete() bool {
	return strings.TrimSpace(p.Vertex) != "" && strings.TrimSpace(p.Fragment) != ""
}

// Text returns both sources as one listing, vertex stage first.
func (p Pair) Text() string {
	var b strings.Builder
	b.WriteString("// vertex\n")
	b.WriteString(strings.TrimRight(p.Vertex, "\n"))
	b.WriteString("\n\n// fragment\n")
	b.WriteString(strings.TrimRight(p.Fragment, "\n"))
	b.WriteString("\n")
	return b.String()
}
