// Package graph assembles a directed graph of former nations from
// encyclopedia articles. Nodes are keyed by article title, edges are the
// predecessor/successor names the articles claim, and redirect pages become
// synonym entries that consumers resolve at read time.
package graph

import (
	"github.com/chronomap/chronik/pkg/infobox"
)

// Position is a 2D layout coordinate. The builder never assigns one; it
// exists so renderers can attach a layout to a node later.
type Position struct {
	X float64
	Y float64
}

// NationValue holds the extracted facts about one former nation.
type NationValue struct {
	Name          string
	StartYear     *int
	EndYear       *int
	Position      *Position
	SourceArticle string
}

// NationNode is a nation together with its edge sets. Edges hold name
// references exactly as the source article wrote them; they are resolved
// against the synonym map when read, never rewritten in place.
type NationNode struct {
	Value      NationValue
	Precursors map[string]struct{}
	Successors map[string]struct{}
}

// SubdivisionNode is a nation that was part of a larger one. The parent
// candidates come from the subdivision's own article and stay an ordered,
// unvalidated list.
type SubdivisionNode struct {
	NationNode
	ParentCandidates []string
}

// Graph is the traversal state. All four maps are append-only; a title that
// has landed in one of them is never reprocessed. The zero value is not
// usable, create one with NewGraph.
//
// Graph is not safe for concurrent use. The builder funnels every mutation
// through a single goroutine.
type Graph struct {
	Nations      map[string]*NationNode
	Subdivisions map[string]*SubdivisionNode
	Synonyms     map[string]string
	Errors       map[string]error

	pending []string
}

// NewGraph creates an empty graph with the given seed titles pending.
func NewGraph(seeds []string) *Graph {
	g := &Graph{
		Nations:      make(map[string]*NationNode),
		Subdivisions: make(map[string]*SubdivisionNode),
		Synonyms:     make(map[string]string),
		Errors:       make(map[string]error),
	}
	for _, seed := range seeds {
		g.Enqueue(seed)
	}
	return g
}

// Known reports whether a title has already been resolved, as a node, a
// synonym source, or a recorded error.
func (g *Graph) Known(title string) bool {
	if _, ok := g.Nations[title]; ok {
		return true
	}
	if _, ok := g.Subdivisions[title]; ok {
		return true
	}
	if _, ok := g.Synonyms[title]; ok {
		return true
	}
	if _, ok := g.Errors[title]; ok {
		return true
	}
	return false
}

// Enqueue appends a title to the pending worklist unless it is empty or
// already resolved. Duplicates within the worklist are allowed; takeBatch
// filters them out when the title is dequeued.
func (g *Graph) Enqueue(title string) {
	if title == "" || g.Known(title) {
		return
	}
	g.pending = append(g.pending, title)
}

// takeBatch dequeues up to n distinct unresolved titles from the front of
// the worklist.
func (g *Graph) takeBatch(n int) []string {
	var batch []string
	seen := make(map[string]struct{})
	for len(g.pending) > 0 && len(batch) < n {
		title := g.pending[0]
		g.pending = g.pending[1:]
		if _, ok := seen[title]; ok {
			continue
		}
		if g.Known(title) {
			continue
		}
		seen[title] = struct{}{}
		batch = append(batch, title)
	}
	return batch
}

// PendingCount returns the number of titles still waiting in the worklist.
func (g *Graph) PendingCount() int {
	return len(g.pending)
}

// Resolve follows the synonym chain for a name until it reaches a name with
// no synonym entry. The hop budget caps cyclic redirect chains.
func (g *Graph) Resolve(name string) string {
	for hops := 0; hops <= len(g.Synonyms); hops++ {
		target, ok := g.Synonyms[name]
		if !ok {
			return name
		}
		name = target
	}
	return name
}

// Node resolves a name through the synonym map and returns the node stored
// under the resolved title, subdivisions included.
func (g *Graph) Node(name string) (*NationNode, bool) {
	resolved := g.Resolve(name)
	if node, ok := g.Nations[resolved]; ok {
		return node, true
	}
	if node, ok := g.Subdivisions[resolved]; ok {
		return &node.NationNode, true
	}
	return nil, false
}

// AddSynonym records that title redirects to target and queues the target
// for processing.
func (g *Graph) AddSynonym(title, target string) {
	g.Synonyms[title] = target
	g.Enqueue(target)
}

// AddError records the error that stopped a title from contributing a node.
func (g *Graph) AddError(title string, err error) {
	g.Errors[title] = err
}

// AddNation stores the node extracted from a title's infobox and queues
// every referenced name that is not yet known. Edge names go in as written;
// synonym resolution happens when the graph is read. The node is recorded
// before its edges are queued so a self-reference does not requeue the
// title.
func (g *Graph) AddNation(title string, box *infobox.Infobox) {
	node := NationNode{
		Value: NationValue{
			Name:          box.Name,
			StartYear:     box.StartYear,
			EndYear:       box.EndYear,
			SourceArticle: title,
		},
		Precursors: make(map[string]struct{}),
		Successors: make(map[string]struct{}),
	}
	for _, name := range box.Precursors {
		node.Precursors[name] = struct{}{}
	}
	for _, name := range box.Successors {
		node.Successors[name] = struct{}{}
	}

	if box.Kind == infobox.KindSubdivision {
		g.Subdivisions[title] = &SubdivisionNode{
			NationNode:       node,
			ParentCandidates: box.ParentCandidates,
		}
	} else {
		g.Nations[title] = &node
	}

	for _, name := range box.Precursors {
		g.Enqueue(name)
	}
	for _, name := range box.Successors {
		g.Enqueue(name)
	}
	for _, name := range box.ParentCandidates {
		g.Enqueue(name)
	}
}

// Stats summarizes the graph for logging and status reporting.
type Stats struct {
	Nations      int
	Subdivisions int
	Synonyms     int
	Errors       int
	Pending      int
}

func (g *Graph) Stats() Stats {
	return Stats{
		Nations:      len(g.Nations),
		Subdivisions: len(g.Subdivisions),
		Synonyms:     len(g.Synonyms),
		Errors:       len(g.Errors),
		Pending:      len(g.pending),
	}
}
