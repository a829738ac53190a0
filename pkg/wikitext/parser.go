package wikitext

import (
	"fmt"
	"strings"
)

// DefaultMaxDepth bounds how deeply constructs may nest before parsing is
// rejected. Organic markup stays in single digits; anything deeper is
// either generated or hostile.
const DefaultMaxDepth = 64

// ParseError reports why markup could not be parsed and the byte offset
// where parsing gave up.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wikitext: %s at offset %d", e.Msg, e.Offset)
}

// Parser parses article markup into Documents. A Parser holds no state
// between calls and is safe for concurrent use.
type Parser struct {
	maxDepth int
}

// NewParserParams contains configuration for creating a Parser.
type NewParserParams struct {
	// MaxDepth overrides DefaultMaxDepth when > 0.
	MaxDepth int
}

// NewParser creates a new Parser.
func NewParser(params NewParserParams) *Parser {
	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Parser{maxDepth: maxDepth}
}

// Parse parses src into a Document.
func (p *Parser) Parse(src string) (Document, error) {
	s := &scanner{src: src, maxDepth: p.maxDepth}
	return s.parseDocument(0, true)
}

var defaultParser = NewParser(NewParserParams{})

// Parse parses src with the default nesting limit.
func Parse(src string) (Document, error) {
	return defaultParser.Parse(src)
}

type scanner struct {
	src      string
	pos      int
	maxDepth int
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// isStopByte reports whether b can end a run of plain text. All markup
// constructs start or end with one of these.
func isStopByte(b byte) bool {
	switch b {
	case '{', '}', '[', ']', '<', '>', '|':
		return true
	}
	return false
}

// parseDocument consumes nodes until the input ends or the next character
// belongs to the construct enclosing this document. The top-level document
// has no enclosing construct, so a stray separator there is kept as literal
// text instead of ending the document.
func (s *scanner) parseDocument(depth int, top bool) (Document, error) {
	if depth > s.maxDepth {
		return nil, s.errorf(s.pos, "markup nested deeper than %d levels", s.maxDepth)
	}

	var nodes Document
	for s.pos < len(s.src) {
		node, err := s.parseNode(depth)
		if err != nil {
			return nil, err
		}
		if text, ok := node.(Text); ok && text == "" {
			if !top {
				break
			}
			node = Text(s.src[s.pos : s.pos+1])
			s.pos++
		}
		nodes = appendNode(nodes, node)
	}
	return nodes, nil
}

// parseNode parses the next node. It returns an empty Text node without
// consuming anything when the next character is reserved for the enclosing
// construct (a parameter separator or a doubled closer).
func (s *scanner) parseNode(depth int) (Node, error) {
	switch s.src[s.pos] {
	case '<':
		if comment, ok := s.parseComment(); ok {
			return comment, nil
		}
		if tag, ok := s.parseTag(); ok {
			return tag, nil
		}
		s.pos++
		return Text("<"), nil
	case '>':
		s.pos++
		return Text(">"), nil
	case '[':
		if s.hasPrefix("[[") {
			return s.parseLink(depth)
		}
		s.pos++
		return Text("["), nil
	case '{':
		if s.hasPrefix("{{") {
			return s.parseTemplate(depth)
		}
		s.pos++
		return Text("{"), nil
	case ']':
		if !s.hasPrefix("]]") {
			s.pos++
			return Text("]"), nil
		}
		return Text(""), nil
	case '}':
		if !s.hasPrefix("}}") {
			s.pos++
			return Text("}"), nil
		}
		return Text(""), nil
	case '|':
		return Text(""), nil
	default:
		return s.parseText(), nil
	}
}

func (s *scanner) parseText() Node {
	start := s.pos
	for s.pos < len(s.src) && !isStopByte(s.src[s.pos]) {
		s.pos++
	}
	return Text(s.src[start:s.pos])
}

// parseComment matches <!-- ... -->. The body runs to the first --> and is
// captured verbatim. An unterminated comment is not an error; the opening
// angle bracket falls back to literal text.
func (s *scanner) parseComment() (Node, bool) {
	if !s.hasPrefix("<!--") {
		return nil, false
	}
	rest := s.src[s.pos+4:]
	end := strings.Index(rest, "-->")
	if end < 0 {
		return nil, false
	}
	s.pos += 4 + end + 3
	return Comment(rest[:end]), true
}

// parseTag matches a single opening, closing or self-closing HTML tag with
// double-quoted attributes. It only moves the scanner on a full match; a
// partial match falls back to literal text.
func (s *scanner) parseTag() (Node, bool) {
	i := s.pos + 1
	tag := Tag{}
	if i < len(s.src) && s.src[i] == '/' {
		tag.Closing = true
		i++
	}

	name, i, ok := scanName(s.src, i)
	if !ok {
		return nil, false
	}
	tag.Name = name

	for {
		j := skipSpace(s.src, i)
		if j >= len(s.src) {
			return nil, false
		}
		if s.src[j] == '>' {
			s.pos = j + 1
			return tag, true
		}
		if s.src[j] == '/' && !tag.Closing && strings.HasPrefix(s.src[j:], "/>") {
			tag.SelfClosing = true
			s.pos = j + 2
			return tag, true
		}
		// attributes need separating whitespace and never follow </name
		if j == i || tag.Closing {
			return nil, false
		}
		key, value, next, ok := scanAttr(s.src, j)
		if !ok {
			return nil, false
		}
		if tag.Attrs == nil {
			tag.Attrs = make(map[string]string)
		}
		tag.Attrs[key] = value
		i = next
	}
}

func (s *scanner) parseLink(depth int) (Node, error) {
	open := s.pos
	s.pos += 2

	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '|' && s.src[s.pos] != ']' {
		s.pos++
	}
	if s.pos >= len(s.src) {
		return nil, s.errorf(open, "link is never closed")
	}
	link := Link{Target: s.src[start:s.pos]}

	for s.src[s.pos] == '|' {
		s.pos++
		part, err := s.parseDocument(depth+1, false)
		if err != nil {
			return nil, err
		}
		link.Parts = append(link.Parts, part)
		if s.pos >= len(s.src) {
			return nil, s.errorf(open, "link is never closed")
		}
	}

	if !s.hasPrefix("]]") {
		return nil, s.errorf(s.pos, "expected ]] to close link")
	}
	s.pos += 2
	return link, nil
}

func (s *scanner) parseTemplate(depth int) (Node, error) {
	open := s.pos
	s.pos += 2

	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '|' && s.src[s.pos] != '}' {
		s.pos++
	}
	if s.pos >= len(s.src) {
		return nil, s.errorf(open, "template is never closed")
	}
	tmpl := Template{Title: strings.TrimSpace(s.src[start:s.pos])}

	for s.src[s.pos] == '|' {
		s.pos++
		key, named := s.scanParamKey()
		part, err := s.parseDocument(depth+1, false)
		if err != nil {
			return nil, err
		}
		if named {
			if tmpl.Named == nil {
				tmpl.Named = make(map[string]Document)
			}
			tmpl.Named[strings.TrimSpace(key)] = part
		} else {
			tmpl.Positional = append(tmpl.Positional, part)
		}
		if s.pos >= len(s.src) {
			return nil, s.errorf(open, "template is never closed")
		}
	}

	if !s.hasPrefix("}}") {
		return nil, s.errorf(s.pos, "expected }} to close template")
	}
	s.pos += 2
	return tmpl, nil
}

// scanParamKey detects the key of a named parameter: a plain run ending in
// '=' before any markup delimiter. On a match the scanner is moved past the
// '='; otherwise it stays put and the parameter is positional.
func (s *scanner) scanParamKey() (string, bool) {
	for i := s.pos; i < len(s.src); i++ {
		b := s.src[i]
		if b == '=' {
			key := s.src[s.pos:i]
			s.pos = i + 1
			return key, true
		}
		if isStopByte(b) {
			return "", false
		}
	}
	return "", false
}

// appendNode appends node to nodes, merging consecutive Text nodes and
// dropping empty ones.
func appendNode(nodes Document, node Node) Document {
	text, ok := node.(Text)
	if !ok {
		return append(nodes, node)
	}
	if text == "" {
		return nodes
	}
	if len(nodes) > 0 {
		if prev, ok := nodes[len(nodes)-1].(Text); ok {
			nodes[len(nodes)-1] = prev + text
			return nodes
		}
	}
	return append(nodes, node)
}

func isNameStart(b byte) bool {
	return b == '_' || b == ':' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameByte(b byte) bool {
	return isNameStart(b) || b == '.' || b == '-' || (b >= '0' && b <= '9')
}

func scanName(src string, i int) (string, int, bool) {
	if i >= len(src) || !isNameStart(src[i]) {
		return "", i, false
	}
	start := i
	for i < len(src) && isNameByte(src[i]) {
		i++
	}
	return src[start:i], i, true
}

func skipSpace(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}

// scanAttr matches name="value" starting at i and returns the position
// after the closing quote.
func scanAttr(src string, i int) (string, string, int, bool) {
	key, i, ok := scanName(src, i)
	if !ok {
		return "", "", i, false
	}
	i = skipSpace(src, i)
	if i >= len(src) || src[i] != '=' {
		return "", "", i, false
	}
	i = skipSpace(src, i+1)
	if i >= len(src) || src[i] != '"' {
		return "", "", i, false
	}
	end := strings.IndexByte(src[i+1:], '"')
	if end < 0 {
		return "", "", i, false
	}
	return key, src[i+1 : i+1+end], i + end + 2, true
}
