package domain

import (
	"path/filepath"
	"strings"
)

// Scope maps file system paths to template ids and back.
// A file belongs to the scope when it lies under Root and carries Suffix.
type Scope struct {
	// Root is the cleaned template root directory.
	Root string
	// Suffix is the template file extension without the leading dot.
	Suffix string
	// Prefix is the include-name prefix users may put in front of a bare
	// template name, such as "templates/header" for "header".
	Prefix string
}

// NewScope returns a Scope for root and suffix.
func NewScope(root, suffix string) Scope {
	return Scope{
		Root:   filepath.Clean(root),
		Suffix: strings.TrimPrefix(suffix, "."),
	}
}

// Ext returns the template file extension including the dot.
func (s Scope) Ext() string {
	if s.Suffix == "" {
		return ""
	}
	return "." + s.Suffix
}

// Rel returns the slash-separated path of p relative to Root. The boolean is
// false when p is not Root itself and does not lie below it.
func (s Scope) Rel(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	p = filepath.Clean(p)
	if p == s.Root {
		return "", true
	}
	prefix := s.Root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return filepath.ToSlash(p[len(prefix):]), true
}

// Under reports whether p is Root or lies below it.
func (s Scope) Under(p string) bool {
	_, ok := s.Rel(p)
	return ok
}

// Contains reports whether p is a template file of the scope.
func (s Scope) Contains(p string) bool {
	_, ok := s.IDOf(p)
	return ok
}

// IDOf returns the TemplateID of the template file at p.
func (s Scope) IDOf(p string) (TemplateID, bool) {
	rel, ok := s.Rel(p)
	if !ok || rel == "" {
		return TemplateID{}, false
	}
	ext := s.Ext()
	if !strings.HasSuffix(rel, ext) || len(rel) == len(ext) {
		return TemplateID{}, false
	}
	id := NewTemplateID(strings.TrimSuffix(rel, ext))
	return id, !id.IsZero()
}

// PathOf returns the file system path of the template id.
func (s Scope) PathOf(id TemplateID) string {
	return filepath.Join(s.Root, filepath.FromSlash(id.String())+s.Ext())
}

// Unqualify strips the include-name prefix from id. It reports false when id
// does not carry the prefix.
func (s Scope) Unqualify(id TemplateID) (TemplateID, bool) {
	if s.Prefix == "" {
		return TemplateID{}, false
	}
	rest, ok := strings.CutPrefix(id.String(), strings.Trim(s.Prefix, "/")+"/")
	if !ok {
		return TemplateID{}, false
	}
	stripped := NewTemplateID(rest)
	return stripped, !stripped.IsZero()
}

// Resolve accepts either a path (absolute, or relative to the working
// directory cwd) or a bare template name and returns the matching id.
func (s Scope) Resolve(cwd, ref string) (TemplateID, bool) {
	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	if id, ok := s.IDOf(p); ok {
		return id, true
	}
	if strings.HasSuffix(ref, s.Ext()) {
		return TemplateID{}, false
	}
	id := NewTemplateID(ref)
	return id, !id.IsZero()
}
