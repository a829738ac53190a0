package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/chronomap/chronik/pkg/graph"
)

// DOT encodes the graph in Graphviz dot syntax. Nations are boxes labeled
// with name and year span, precursor/successor edges run in time direction,
// subdivisions point at their resolved parent candidates with dashed edges.
// Edge names that resolve to no known node become dashed ellipse nodes so
// the fringe of the traversal stays visible.
func DOT(g *graph.Graph) []byte {
	titles := nodeTitles(g)
	known := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		known[title] = struct{}{}
	}

	phantoms := make(map[string]struct{})
	edges := make(map[string]struct{})
	addEdge := func(from, to string, dashed bool) {
		if _, ok := known[from]; !ok {
			phantoms[from] = struct{}{}
		}
		if _, ok := known[to]; !ok {
			phantoms[to] = struct{}{}
		}
		line := "\t" + dotQuote(from) + " -> " + dotQuote(to)
		if dashed {
			line += " [style=dashed]"
		}
		edges[line+";\n"] = struct{}{}
	}

	for _, title := range titles {
		node, _ := g.Node(title)
		for name := range node.Precursors {
			addEdge(g.Resolve(name), title, false)
		}
		for name := range node.Successors {
			addEdge(title, g.Resolve(name), false)
		}
	}
	for title, sub := range g.Subdivisions {
		for _, name := range sub.ParentCandidates {
			addEdge(title, g.Resolve(name), true)
		}
	}

	var b strings.Builder
	b.WriteString("digraph nations {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box];\n\n")

	for _, title := range titles {
		node, _ := g.Node(title)
		b.WriteString("\t" + dotQuote(title) + " [label=" + dotLabel(node.Value) + "];\n")
	}

	phantomNames := make([]string, 0, len(phantoms))
	for name := range phantoms {
		phantomNames = append(phantomNames, name)
	}
	sort.Strings(phantomNames)
	for _, name := range phantomNames {
		b.WriteString("\t" + dotQuote(name) + " [shape=ellipse, style=dashed];\n")
	}

	if len(edges) > 0 {
		b.WriteString("\n")
		edgeLines := make([]string, 0, len(edges))
		for line := range edges {
			edgeLines = append(edgeLines, line)
		}
		sort.Strings(edgeLines)
		for _, line := range edgeLines {
			b.WriteString(line)
		}
	}

	b.WriteString("}\n")
	return []byte(b.String())
}

func dotLabel(value graph.NationValue) string {
	label := escapeDot(value.Name)
	if span := yearSpan(value); span != "" {
		label += `\n` + span
	}
	return `"` + label + `"`
}

// yearSpan renders the lifetime of a nation, leaving out whichever end is
// unknown. BCE years read as "N BC".
func yearSpan(value graph.NationValue) string {
	if value.StartYear == nil && value.EndYear == nil {
		return ""
	}
	span := ""
	if value.StartYear != nil {
		span = formatYear(*value.StartYear)
	}
	span += "-"
	if value.EndYear != nil {
		span += formatYear(*value.EndYear)
	}
	return span
}

func formatYear(year int) string {
	if year < 0 {
		return strconv.Itoa(-year) + " BC"
	}
	return strconv.Itoa(year)
}

func dotQuote(s string) string {
	return `"` + escapeDot(s) + `"`
}

func escapeDot(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
