// Package renderer expands include directives and produces preview documents.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Renderer = (*Renderer)(nil)

// DefaultMaxDepth bounds include nesting during expansion.
const DefaultMaxDepth = 64

// Renderer implements ports.Renderer. Include directives are replaced with
// the contents of the named template; unknown names become a faulty partial
// marker. HTML output is wrapped in a standalone document and optionally
// converted from markdown first.
type Renderer struct {
	md       goldmark.Markdown
	maxDepth int
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		maxDepth: DefaultMaxDepth,
	}
}

// WithMaxDepth overrides the include nesting limit.
func (r *Renderer) WithMaxDepth(depth int) *Renderer {
	r.maxDepth = depth
	return r
}

// Render expands req.Contents and formats the result.
func (r *Renderer) Render(ctx context.Context, req ports.RenderRequest) ([]byte, error) {
	e := &expander{
		ctx:      ctx,
		req:      req,
		maxDepth: r.maxDepth,
		onPath:   map[string]bool{req.Root.String(): true},
	}

	var body strings.Builder
	if err := e.expand(&body, req.Contents, 0); err != nil {
		return nil, zerr.With(err, "root", req.Root.String())
	}

	if req.Format == domain.FormatText {
		return []byte(body.String()), nil
	}

	var content bytes.Buffer
	if req.Markdown {
		if err := r.md.Convert([]byte(body.String()), &content); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "markdown conversion failed"), "root", req.Root.String())
		}
	} else {
		content.WriteString(body.String())
	}
	return document(req.Root, content.Bytes()), nil
}

type expander struct {
	ctx      context.Context
	req      ports.RenderRequest
	maxDepth int
	onPath   map[string]bool
}

func (e *expander) expand(out *strings.Builder, contents string, depth int) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	if depth > e.maxDepth {
		return zerr.With(zerr.Wrap(domain.ErrRender, "includes nested too deeply"), "depth", depth)
	}

	open, closing := e.req.Markers.Open, e.req.Markers.Close
	rest := contents
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			out.WriteString(rest)
			return nil
		}
		j := strings.Index(rest[i+len(open):], closing)
		if j < 0 {
			// Unterminated directive; keep the text as written.
			out.WriteString(rest)
			return nil
		}

		out.WriteString(rest[:i])
		name := strings.TrimSpace(rest[i+len(open) : i+len(open)+j])
		rest = rest[i+len(open)+j+len(closing):]

		if err := e.include(out, name, depth); err != nil {
			return err
		}
	}
}

func (e *expander) include(out *strings.Builder, name string, depth int) error {
	id := domain.NewTemplateID(name)
	if id.IsZero() {
		fmt.Fprintf(out, domain.FaultyPartialFormat, name)
		return nil
	}
	if e.onPath[id.String()] {
		return zerr.With(zerr.Wrap(domain.ErrCyclicInclude, "include cycle while rendering"), "include", name)
	}

	partial, ok := e.req.Partial(name)
	if !ok {
		fmt.Fprintf(out, domain.FaultyPartialFormat, name)
		return nil
	}

	e.onPath[id.String()] = true
	defer delete(e.onPath, id.String())
	return e.expand(out, partial, depth+1)
}

func document(root domain.TemplateID, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(root.String()))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
