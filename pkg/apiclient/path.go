package apiclient

import (
	"net/url"
	"strings"
)

// Path is a request path together with the template it was rendered from.
// The template labels logs and metrics so ids do not explode cardinality.
type Path struct {
	template string
	rendered string
}

// Route renders template by substituting each {placeholder}, in order, with
// the path-escaped argument. Missing arguments leave the placeholder as is.
func Route(template string, args ...string) Path {
	if !strings.HasPrefix(template, "/") {
		template = "/" + template
	}
	var b strings.Builder
	rest := template
	next := 0
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closeIdx := strings.IndexByte(rest[open:], '}')
		if closeIdx < 0 {
			b.WriteString(rest)
			break
		}
		closeIdx += open
		b.WriteString(rest[:open])
		if next < len(args) {
			b.WriteString(url.PathEscape(args[next]))
			next++
		} else {
			b.WriteString(rest[open : closeIdx+1])
		}
		rest = rest[closeIdx+1:]
	}
	return Path{template: template, rendered: b.String()}
}

func (p Path) Template() string {
	return p.template
}

func (p Path) String() string {
	return p.rendered
}
