// Package fetch loads raw article markup from a MediaWiki-compatible API.
package fetch

import (
	"context"
	"fmt"
)

// PageFetcher returns the raw markup of the page stored under title.
// Implementations must not follow redirects; redirect pages are data.
type PageFetcher interface {
	FetchPage(ctx context.Context, title string) (string, error)
}

// HTTPError reports a page that could not be fetched over the transport,
// including pages the wiki does not have.
type HTTPError struct {
	Title  string
	Status int
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %q: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("fetch %q: unexpected status %d", e.Title, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// JSONError reports a response envelope that could not be decoded into the
// expected shape.
type JSONError struct {
	Title string
	Err   error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("decode page %q: %v", e.Title, e.Err)
}

func (e *JSONError) Unwrap() error {
	return e.Err
}
