// Package infobox reads succession facts about former political entities
// out of parsed article markup.
package infobox

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/chronomap/chronik/pkg/wikitext"
)

// Kind says which infobox template an extraction came from.
type Kind string

const (
	KindCountry     Kind = "country"
	KindSubdivision Kind = "subdivision"
)

const (
	countryTemplate     = "infobox former country"
	subdivisionTemplate = "infobox former subdivision"

	nameField = "conventional_long_name"

	// connection parameters run p1..p15 and s1..s15
	maxConnections = 15
)

var (
	// ErrMissingInfobox is returned for pages without a former-entity infobox.
	ErrMissingInfobox = errors.New("page has no former-entity infobox")
	// ErrDoubleInfobox is returned for pages carrying both a country and a
	// subdivision infobox; which one describes the page is ambiguous.
	ErrDoubleInfobox = errors.New("page has both a country and a subdivision infobox")
)

// InterpretError reports a present infobox field whose value has no
// readable text form.
type InterpretError struct {
	Field string
}

func (e *InterpretError) Error() string {
	return fmt.Sprintf("infobox field %q cannot be interpreted as text", e.Field)
}

// MissingFieldError reports a mandatory infobox field that is absent or
// unusable.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("mandatory infobox field %q is missing", e.Field)
}

// Infobox carries the facts read from a former-entity infobox.
type Infobox struct {
	Kind      Kind
	Name      string
	StartYear *int
	EndYear   *int
	// Precursors and Successors hold entity names as written in the
	// template, in ascending parameter order.
	Precursors []string
	Successors []string
	// ParentCandidates lists the link targets of the nation parameter in
	// order of appearance. Only subdivisions have parents.
	ParentCandidates []string
}

// Extract finds the single former-country or former-subdivision infobox
// among doc's top-level templates and reads it. Failure to interpret any
// present field aborts the whole extraction.
func Extract(doc wikitext.Document) (*Infobox, error) {
	var country, subdivision *wikitext.Template
	for _, node := range doc {
		tmpl, ok := node.(wikitext.Template)
		if !ok {
			continue
		}
		switch strings.ToLower(tmpl.Title) {
		case countryTemplate:
			if country == nil {
				t := tmpl
				country = &t
			}
		case subdivisionTemplate:
			if subdivision == nil {
				t := tmpl
				subdivision = &t
			}
		}
	}

	if country == nil && subdivision == nil {
		return nil, ErrMissingInfobox
	}
	if country != nil && subdivision != nil {
		return nil, ErrDoubleInfobox
	}

	tmpl := country
	box := &Infobox{Kind: KindCountry}
	if subdivision != nil {
		tmpl = subdivision
		box.Kind = KindSubdivision
	}

	name, ok, err := propText(tmpl, nameField, false)
	name = strings.TrimSpace(name)
	if err != nil || !ok || name == "" {
		return nil, &MissingFieldError{Field: nameField}
	}
	box.Name = name

	if box.StartYear, err = propYear(tmpl, "year_start"); err != nil {
		return nil, err
	}
	if box.EndYear, err = propYear(tmpl, "year_end"); err != nil {
		return nil, err
	}

	if box.Precursors, err = propConnections(tmpl, "p"); err != nil {
		return nil, err
	}
	if box.Successors, err = propConnections(tmpl, "s"); err != nil {
		return nil, err
	}

	if box.Kind == KindSubdivision {
		box.ParentCandidates = parentCandidates(tmpl)
	}

	return box, nil
}

// propText resolves a named parameter to plain text. The bool result
// distinguishes an absent parameter from a present one; a present value
// that matches none of the accepted shapes is an InterpretError.
//
// Values written inside auto-linking parameters must not carry an explicit
// link, and may end in a {{!}} footnote marker after the text. Everywhere
// else a single explicit link stands for its target.
func propText(tmpl *wikitext.Template, field string, autoLinked bool) (string, bool, error) {
	value, ok := tmpl.Named[field]
	if !ok {
		return "", false, nil
	}

	nodes := stripDecoration(value)
	switch len(nodes) {
	case 0:
		return "", true, nil
	case 1:
		switch n := nodes[0].(type) {
		case wikitext.Text:
			return string(n), true, nil
		case wikitext.Link:
			if !autoLinked {
				return n.Target, true, nil
			}
		}
	case 2:
		if autoLinked {
			text, textOK := nodes[0].(wikitext.Text)
			marker, markerOK := nodes[1].(wikitext.Template)
			if textOK && markerOK && marker.Title == "!" {
				return string(text), true, nil
			}
		}
	}
	return "", false, &InterpretError{Field: field}
}

// stripDecoration drops the nodes that carry no meaning for field values:
// comments, whitespace-only text and br/small tags.
func stripDecoration(value wikitext.Document) []wikitext.Node {
	var nodes []wikitext.Node
	for _, node := range value {
		switch n := node.(type) {
		case wikitext.Comment:
			continue
		case wikitext.Text:
			if strings.TrimSpace(string(n)) == "" {
				continue
			}
		case wikitext.Tag:
			name := strings.ToLower(n.Name)
			if name == "br" || name == "small" {
				continue
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// propYear resolves an optional year field. A blank value counts as absent;
// template skeletons keep empty year parameters around.
func propYear(tmpl *wikitext.Template, field string) (*int, error) {
	text, ok, err := propText(tmpl, field, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	year, ok := parseYear(text)
	if !ok {
		return nil, &InterpretError{Field: field}
	}
	return &year, nil
}

// parseYear reads a year written as a digit run with an optional BC suffix.
// BC years are negative.
func parseYear(text string) (int, bool) {
	digits := 0
	for digits < len(text) && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(text[:digits])
	if err != nil {
		return 0, false
	}

	rest := text[digits:]
	if rest == "" {
		return year, true
	}
	if strings.TrimLeftFunc(rest, unicode.IsSpace) == "BC" {
		return -year, true
	}
	return 0, false
}

// propConnections collects the predecessor or successor names stored in
// prefix1..prefix15. Absent indices are skipped, blank values dropped.
func propConnections(tmpl *wikitext.Template, prefix string) ([]string, error) {
	var names []string
	for i := 1; i <= maxConnections; i++ {
		field := fmt.Sprintf("%s%d", prefix, i)
		text, ok, err := propText(tmpl, field, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		names = append(names, text)
	}
	return names, nil
}

// parentCandidates collects the targets of the top-level links in the
// nation parameter. The parameter is free-form prose, so no shape is
// enforced and nothing here can fail.
func parentCandidates(tmpl *wikitext.Template) []string {
	value, ok := tmpl.Named["nation"]
	if !ok {
		return nil
	}
	var parents []string
	for _, node := range value {
		if link, ok := node.(wikitext.Link); ok {
			parents = append(parents, link.Target)
		}
	}
	return parents
}
