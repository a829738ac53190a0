package graph

import (
	"errors"

	"github.com/chronomap/chronik/pkg/fetch"
	"github.com/chronomap/chronik/pkg/infobox"
	"github.com/chronomap/chronik/pkg/wikitext"
)

// Stable kind strings for every error class a page can end in. Persistence
// and exports key on these, so their values never change.
const (
	KindHTTP           = "http"
	KindJSON           = "json"
	KindParse          = "parse"
	KindMissingInfobox = "missing_infobox"
	KindDoubleInfobox  = "double_infobox"
	KindInterpret      = "interpret"
	KindMissingField   = "missing_field"
	KindUnknown        = "unknown"
)

// ErrorKind classifies a page error into one of the stable kind strings.
func ErrorKind(err error) string {
	var stored *StoredError
	if errors.As(err, &stored) {
		return stored.Kind
	}

	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		return KindHTTP
	}
	var jsonErr *fetch.JSONError
	if errors.As(err, &jsonErr) {
		return KindJSON
	}
	var parseErr *wikitext.ParseError
	if errors.As(err, &parseErr) {
		return KindParse
	}
	if errors.Is(err, infobox.ErrMissingInfobox) {
		return KindMissingInfobox
	}
	if errors.Is(err, infobox.ErrDoubleInfobox) {
		return KindDoubleInfobox
	}
	var interpretErr *infobox.InterpretError
	if errors.As(err, &interpretErr) {
		return KindInterpret
	}
	var missingErr *infobox.MissingFieldError
	if errors.As(err, &missingErr) {
		return KindMissingField
	}
	return KindUnknown
}

// StoredError is a page error loaded back from persistence. Only the kind
// and the rendered message survive the round trip; the original typed error
// does not.
type StoredError struct {
	Kind    string
	Message string
}

func (e *StoredError) Error() string {
	return e.Message
}
