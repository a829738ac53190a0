package wikitext

import "strings"

// RedirectTarget reports whether doc is a redirect page and returns the
// target title. A redirect starts with the literal token #REDIRECT,
// optional whitespace, and a link to the page the title forwards to.
// Anything after the link (redirect pages often carry category links) is
// ignored.
func RedirectTarget(doc Document) (string, bool) {
	if len(doc) < 2 {
		return "", false
	}
	text, ok := doc[0].(Text)
	if !ok {
		return "", false
	}
	if strings.TrimRight(string(text), " \t\r\n") != "#REDIRECT" {
		return "", false
	}
	link, ok := doc[1].(Link)
	if !ok {
		return "", false
	}
	return link.Target, true
}
