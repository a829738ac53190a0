// Package export renders a finished nation graph into interchange formats.
// Both encoders resolve edge names through the synonym map and emit
// deterministic output, so the same graph always serializes to the same
// bytes.
package export

import (
	"encoding/json"
	"sort"

	"github.com/chronomap/chronik/pkg/graph"
)

// JSONGraph is the top-level document produced by JSON.
type JSONGraph struct {
	Nations  []JSONNation      `json:"nations"`
	Synonyms map[string]string `json:"synonyms"`
	Errors   []JSONError       `json:"errors"`
}

// JSONNation is one node. Precursors and successors are resolved through
// the synonym map and sorted; parent candidates keep the order the source
// article asserted them in.
type JSONNation struct {
	Title            string   `json:"title"`
	Name             string   `json:"name"`
	StartYear        *int     `json:"start_year,omitempty"`
	EndYear          *int     `json:"end_year,omitempty"`
	SourceArticle    string   `json:"source_article"`
	Subdivision      bool     `json:"subdivision"`
	Precursors       []string `json:"precursors"`
	Successors       []string `json:"successors"`
	ParentCandidates []string `json:"parent_candidates,omitempty"`
}

// JSONError is one failed page with its stable error kind.
type JSONError struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// JSON encodes the graph as indented JSON with nations and errors sorted by
// title.
func JSON(g *graph.Graph) ([]byte, error) {
	return json.MarshalIndent(NewJSONGraph(g), "", "  ")
}

// NewJSONGraph assembles the JSON document for a graph without encoding it,
// for callers that embed the result in a larger response.
func NewJSONGraph(g *graph.Graph) JSONGraph {
	doc := JSONGraph{
		Nations:  make([]JSONNation, 0, len(g.Nations)+len(g.Subdivisions)),
		Synonyms: g.Synonyms,
		Errors:   make([]JSONError, 0, len(g.Errors)),
	}

	for _, title := range nodeTitles(g) {
		entry := JSONNation{Title: title}
		if node, ok := g.Nations[title]; ok {
			entry.Name = node.Value.Name
			entry.StartYear = node.Value.StartYear
			entry.EndYear = node.Value.EndYear
			entry.SourceArticle = node.Value.SourceArticle
			entry.Precursors = resolveEdges(g, node.Precursors)
			entry.Successors = resolveEdges(g, node.Successors)
		} else {
			sub := g.Subdivisions[title]
			entry.Name = sub.Value.Name
			entry.StartYear = sub.Value.StartYear
			entry.EndYear = sub.Value.EndYear
			entry.SourceArticle = sub.Value.SourceArticle
			entry.Subdivision = true
			entry.Precursors = resolveEdges(g, sub.Precursors)
			entry.Successors = resolveEdges(g, sub.Successors)
			entry.ParentCandidates = sub.ParentCandidates
		}
		doc.Nations = append(doc.Nations, entry)
	}

	errorTitles := make([]string, 0, len(g.Errors))
	for title := range g.Errors {
		errorTitles = append(errorTitles, title)
	}
	sort.Strings(errorTitles)
	for _, title := range errorTitles {
		err := g.Errors[title]
		doc.Errors = append(doc.Errors, JSONError{
			Title:   title,
			Kind:    graph.ErrorKind(err),
			Message: err.Error(),
		})
	}

	return doc
}

// nodeTitles returns every node title, nations and subdivisions together,
// sorted.
func nodeTitles(g *graph.Graph) []string {
	titles := make([]string, 0, len(g.Nations)+len(g.Subdivisions))
	for title := range g.Nations {
		titles = append(titles, title)
	}
	for title := range g.Subdivisions {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// resolveEdges maps every edge name through the synonym chain, drops
// duplicates that collapse onto the same target and sorts the result.
func resolveEdges(g *graph.Graph, edges map[string]struct{}) []string {
	resolved := make([]string, 0, len(edges))
	seen := make(map[string]struct{}, len(edges))
	for name := range edges {
		target := g.Resolve(name)
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		resolved = append(resolved, target)
	}
	sort.Strings(resolved)
	return resolved
}
