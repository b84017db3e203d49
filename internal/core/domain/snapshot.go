package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Snapshot is one immutable build of the include graph. It is never mutated
// after BuildSnapshot returns, so it can be shared between goroutines freely.
type Snapshot struct {
	generation  uint64
	templates   map[TemplateID]Template
	order       []TemplateID
	roots       []TemplateID
	diagnostics []Diagnostic
	byTemplate  map[TemplateID][]Diagnostic
}

// EmptySnapshot returns a snapshot without templates.
func EmptySnapshot() *Snapshot {
	return BuildSnapshot(0, nil)
}

// Generation returns the build counter the snapshot was created with.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Len returns the number of templates.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Lookup returns the template with the given id.
func (s *Snapshot) Lookup(id TemplateID) (Template, bool) {
	t, ok := s.templates[id]
	return t, ok
}

// Contains reports whether id names a template of the snapshot.
func (s *Snapshot) Contains(id TemplateID) bool {
	_, ok := s.templates[id]
	return ok
}

// RootsOf returns the RootSet of id. Cyclic templates have an empty RootSet.
// It returns ErrUnknownTemplate when id is not part of the snapshot.
func (s *Snapshot) RootsOf(id TemplateID) ([]TemplateID, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrUnknownTemplate, "roots lookup failed"), "template", id.String())
	}
	return slices.Clone(t.Roots), nil
}

// IsRoot reports whether id is a root of the snapshot.
func (s *Snapshot) IsRoot(id TemplateID) bool {
	t, ok := s.templates[id]
	return ok && t.IsRoot()
}

// Roots returns every root sorted by name.
func (s *Snapshot) Roots() []TemplateID {
	return slices.Clone(s.roots)
}

// IDs returns every template id sorted by name.
func (s *Snapshot) IDs() []TemplateID {
	return slices.Clone(s.order)
}

// Templates yields every template sorted by id.
func (s *Snapshot) Templates() iter.Seq[Template] {
	return func(yield func(Template) bool) {
		for _, id := range s.order {
			if !yield(s.templates[id]) {
				return
			}
		}
	}
}

// Under returns the ids inside dir, a slash-separated path relative to the
// template root. The empty dir returns every id.
func (s *Snapshot) Under(dir string) []TemplateID {
	var out []TemplateID
	for _, id := range s.order {
		if id.Within(dir) {
			out = append(out, id)
		}
	}
	return out
}

// Diagnostics returns every diagnostic sorted by template.
func (s *Snapshot) Diagnostics() []Diagnostic {
	return slices.Clone(s.diagnostics)
}

// DiagnosticsFor returns the diagnostics attached to id.
func (s *Snapshot) DiagnosticsFor(id TemplateID) []Diagnostic {
	return slices.Clone(s.byTemplate[id])
}

// Closure returns id and every template it includes transitively, sorted.
// Missing includes are not part of the closure.
func (s *Snapshot) Closure(id TemplateID) []TemplateID {
	if _, ok := s.templates[id]; !ok {
		return nil
	}
	visited := map[TemplateID]struct{}{id: {}}
	stack := []TemplateID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range s.templates[cur].Children {
			if e.Missing {
				continue
			}
			if _, ok := visited[e.Target]; ok {
				continue
			}
			visited[e.Target] = struct{}{}
			stack = append(stack, e.Target)
		}
	}
	out := make([]TemplateID, 0, len(visited))
	for v := range visited {
		out = append(out, v)
	}
	slices.SortFunc(out, CompareIDs)
	return out
}

// Blocking returns the parse and cycle diagnostics found in the closure of root.
// A root with blocking diagnostics must not be rendered.
func (s *Snapshot) Blocking(root TemplateID) []Diagnostic {
	var out []Diagnostic
	for _, id := range s.Closure(root) {
		for _, d := range s.byTemplate[id] {
			if d.Kind.Blocking() {
				out = append(out, d)
			}
		}
	}
	return out
}

// IncludeNode is one node of an include tree.
type IncludeNode struct {
	ID TemplateID
	// Missing is set when the include target does not exist.
	Missing bool
	// Repeated is set when the node already appears on the path from the root;
	// its children are not expanded again.
	Repeated bool
	// Malformed mirrors Template.Malformed.
	Malformed bool
	Children  []*IncludeNode
}

// IncludeTree returns the nested include structure below id.
func (s *Snapshot) IncludeTree(id TemplateID) (*IncludeNode, error) {
	if _, ok := s.templates[id]; !ok {
		return nil, zerr.With(zerr.Wrap(ErrUnknownTemplate, "include tree failed"), "template", id.String())
	}
	return s.includeNode(id, map[TemplateID]bool{}), nil
}

func (s *Snapshot) includeNode(id TemplateID, onPath map[TemplateID]bool) *IncludeNode {
	t := s.templates[id]
	node := &IncludeNode{ID: id, Malformed: t.Malformed}
	if onPath[id] {
		node.Repeated = true
		return node
	}

	onPath[id] = true
	for _, e := range t.Children {
		if e.Missing {
			node.Children = append(node.Children, &IncludeNode{ID: e.Target, Missing: true})
			continue
		}
		node.Children = append(node.Children, s.includeNode(e.Target, onPath))
	}
	delete(onPath, id)
	return node
}
