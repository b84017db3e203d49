package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// BuildSnapshot assembles an immutable Snapshot from parsed sources.
//
// It never fails: malformed files, includes of missing templates and include
// cycles are recorded as diagnostics on the result. Sources with a zero id are
// skipped and the first source wins when an id repeats.
func BuildSnapshot(generation uint64, sources []Source) *Snapshot {
	b := newSnapshotBuilder(sources)
	b.linkEdges()
	b.markCycles()
	b.computeRoots()
	return b.finish(generation)
}

type snapshotBuilder struct {
	order    []TemplateID
	sources  map[TemplateID]Source
	children map[TemplateID][]Edge
	parents  map[TemplateID][]TemplateID
	// cyclic maps every template on a cycle to the sorted members of its cycle.
	cyclic map[TemplateID][]TemplateID
	roots  map[TemplateID][]TemplateID
	diags  []Diagnostic
}

func newSnapshotBuilder(sources []Source) *snapshotBuilder {
	b := &snapshotBuilder{
		sources:  make(map[TemplateID]Source, len(sources)),
		children: make(map[TemplateID][]Edge, len(sources)),
		parents:  make(map[TemplateID][]TemplateID, len(sources)),
		cyclic:   make(map[TemplateID][]TemplateID),
		roots:    make(map[TemplateID][]TemplateID, len(sources)),
	}
	for _, src := range sources {
		if src.ID.IsZero() {
			continue
		}
		if _, dup := b.sources[src.ID]; dup {
			continue
		}
		b.sources[src.ID] = src
		b.order = append(b.order, src.ID)
	}
	slices.SortFunc(b.order, CompareIDs)
	return b
}

// linkEdges resolves include names to ids and builds the parent index as the
// inverse of the child edges in a single pass.
func (b *snapshotBuilder) linkEdges() {
	parentSets := make(map[TemplateID]map[TemplateID]struct{}, len(b.order))

	for _, id := range b.order {
		src := b.sources[id]
		if src.Err != nil {
			b.diags = append(b.diags, Diagnostic{Kind: DiagnosticParse, Template: id, Err: src.Err})
		}

		seen := make(map[TemplateID]struct{}, len(src.Includes))
		edges := make([]Edge, 0, len(src.Includes))
		for _, name := range src.Includes {
			target := NewTemplateID(name)
			if target.IsZero() {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}

			_, known := b.sources[target]
			edges = append(edges, Edge{Target: target, Name: name, Missing: !known})
			if !known {
				b.diags = append(b.diags, Diagnostic{
					Kind:     DiagnosticDangling,
					Template: id,
					Target:   target,
					Err: zerr.With(
						zerr.Wrap(ErrDanglingReference, "unresolved include"),
						"include", target.String(),
					),
				})
				continue
			}

			set, ok := parentSets[target]
			if !ok {
				set = make(map[TemplateID]struct{})
				parentSets[target] = set
			}
			set[id] = struct{}{}
		}
		b.children[id] = edges
	}

	for target, set := range parentSets {
		ps := make([]TemplateID, 0, len(set))
		for p := range set {
			ps = append(ps, p)
		}
		slices.SortFunc(ps, CompareIDs)
		b.parents[target] = ps
	}
}

// markCycles finds the strongly connected components of the include graph.
// Members of a component with more than one template, or of a self include,
// are cyclic.
func (b *snapshotBuilder) markCycles() {
	index := make(map[TemplateID]int, len(b.order))
	low := make(map[TemplateID]int, len(b.order))
	onStack := make(map[TemplateID]bool, len(b.order))
	var stack []TemplateID
	next := 0

	var visit func(id TemplateID)
	visit = func(id TemplateID) {
		index[id] = next
		low[id] = next
		next++
		stack = append(stack, id)
		onStack[id] = true

		selfLoop := false
		for _, e := range b.children[id] {
			if e.Missing {
				continue
			}
			if e.Target == id {
				selfLoop = true
			}
			if _, seen := index[e.Target]; !seen {
				visit(e.Target)
				low[id] = min(low[id], low[e.Target])
			} else if onStack[e.Target] {
				low[id] = min(low[id], index[e.Target])
			}
		}

		if low[id] != index[id] {
			return
		}

		var members []TemplateID
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			members = append(members, top)
			if top == id {
				break
			}
		}
		if len(members) > 1 || selfLoop {
			slices.SortFunc(members, CompareIDs)
			for _, m := range members {
				b.cyclic[m] = members
			}
		}
	}

	for _, id := range b.order {
		if _, seen := index[id]; !seen {
			visit(id)
		}
	}
}

func (b *snapshotBuilder) computeRoots() {
	for _, id := range b.order {
		if members, ok := b.cyclic[id]; ok {
			msg := "template is part of an include cycle"
			if len(members) == 1 {
				msg = "template includes itself"
			}
			b.diags = append(b.diags, Diagnostic{
				Kind:     DiagnosticCyclic,
				Template: id,
				Err: zerr.With(
					zerr.Wrap(ErrCyclicInclude, msg),
					"cycle", strings.Join(IDStrings(members), " -> "),
				),
			})
			continue
		}
		b.roots[id] = b.walkUp(id)
	}
}

// walkUp collects the roots above id breadth first. The visited set keeps the
// walk bounded when a cycle sits between id and its roots.
func (b *snapshotBuilder) walkUp(id TemplateID) []TemplateID {
	if len(b.parents[id]) == 0 {
		return []TemplateID{id}
	}

	visited := map[TemplateID]struct{}{id: {}}
	queue := slices.Clone(b.parents[id])
	for _, p := range queue {
		visited[p] = struct{}{}
	}

	var roots []TemplateID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		ps := b.parents[cur]
		if len(ps) == 0 {
			roots = append(roots, cur)
			continue
		}
		for _, p := range ps {
			if _, ok := visited[p]; ok {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return SortIDs(roots)
}

func (b *snapshotBuilder) finish(generation uint64) *Snapshot {
	s := &Snapshot{
		generation: generation,
		templates:  make(map[TemplateID]Template, len(b.order)),
		order:      b.order,
		byTemplate: make(map[TemplateID][]Diagnostic),
	}

	for _, id := range b.order {
		_, cyclic := b.cyclic[id]
		t := Template{
			ID:        id,
			Children:  b.children[id],
			Parents:   b.parents[id],
			Roots:     b.roots[id],
			Cyclic:    cyclic,
			Malformed: b.sources[id].Err != nil,
		}
		s.templates[id] = t
		if t.IsRoot() {
			s.roots = append(s.roots, id)
		}
	}

	sortDiagnostics(b.diags)
	s.diagnostics = b.diags
	for _, d := range b.diags {
		s.byTemplate[d.Template] = append(s.byTemplate[d.Template], d)
	}
	return s
}
