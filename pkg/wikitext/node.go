// Package wikitext parses the subset of encyclopedia wiki markup needed to
// read infoboxes, internal links and redirect directives out of raw article
// source text.
package wikitext

// Node is a single piece of parsed markup. The concrete types are Text,
// Comment, Link, Template and Tag.
type Node interface {
	isNode()
}

// Document is the parsed form of a stretch of markup: the node sequence in
// source order. The parser coalesces runs of plain characters, so a
// document never contains two adjacent Text nodes.
type Document []Node

// Text is a run of plain characters between markup constructs.
type Text string

// Comment is the body of an HTML comment, captured verbatim.
type Comment string

// Link is an internal wiki link, [[target]] or [[target|part|...]].
type Link struct {
	Target string
	Parts  []Document
}

// Template is a transclusion like {{title|value|key=value}}. Positional
// keeps unnamed parameters in source order; Named maps a parameter key to
// its value, keeping the last occurrence of a repeated key.
type Template struct {
	Title      string
	Positional []Document
	Named      map[string]Document
}

// Tag is a single HTML tag. Closing and SelfClosing distinguish </name>
// and <name/> from an opening <name>.
type Tag struct {
	Name        string
	Attrs       map[string]string
	Closing     bool
	SelfClosing bool
}

func (Text) isNode()     {}
func (Comment) isNode()  {}
func (Link) isNode()     {}
func (Template) isNode() {}
func (Tag) isNode()      {}
