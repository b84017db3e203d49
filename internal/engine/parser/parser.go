// Package parser extracts include directives from template contents.
package parser

import (
	"strings"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/zerr"
)

// Result is the outcome of scanning one template.
type Result struct {
	// Includes are the include names in file order, trimmed of surrounding space.
	Includes []string
	// Err is the first problem found. When it wraps domain.ErrParse the scan
	// stopped at the offending marker and Includes hold what came before it.
	// An unclosed marker after an earlier problem still ends the scan.
	Err error
}

// Parser scans for a configurable pair of include markers.
type Parser struct {
	open  string
	close string
}

// New creates a Parser for the given markers.
func New(m domain.Markers) *Parser {
	return &Parser{open: m.Open, close: m.Close}
}

// Markers returns the delimiters the parser scans for.
func (p *Parser) Markers() domain.Markers {
	return domain.Markers{Open: p.open, Close: p.close}
}

// Parse returns the include names found in contents. It never panics on
// malformed input; problems are reported through Result.Err.
func (p *Parser) Parse(contents string) Result {
	var res Result
	if p.open == "" || p.close == "" {
		return res
	}

	offset := 0
	rest := contents
	for {
		i := strings.Index(rest, p.open)
		if i < 0 {
			return res
		}

		body := rest[i+len(p.open):]
		j := strings.Index(body, p.close)
		if j < 0 {
			if res.Err == nil {
				res.Err = position(
					zerr.Wrap(domain.ErrParse, "include marker is never closed"),
					contents, offset+i,
				)
			}
			return res
		}

		if name := strings.TrimSpace(body[:j]); name != "" {
			res.Includes = append(res.Includes, name)
		} else if res.Err == nil {
			res.Err = position(zerr.Wrap(domain.ErrEmptyInclude, "include marker without a name"), contents, offset+i)
		}

		consumed := i + len(p.open) + j + len(p.close)
		offset += consumed
		rest = rest[consumed:]
	}
}

// position attaches the byte offset and 1-based line of a marker to err.
func position(err error, contents string, offset int) error {
	line := strings.Count(contents[:offset], "\n") + 1
	return zerr.With(zerr.With(err, "offset", offset), "line", line)
}
