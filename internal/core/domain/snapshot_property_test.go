//go:build property

package domain_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.trai.ch/stache/internal/core/domain"
)

// graphFromEdges turns encoded edges into sources over ten templates t0..t9.
// Each value e is an include from t(e/10) to t(e%10).
func graphFromEdges(edges []int) []domain.Source {
	includes := make([][]string, 10)
	for _, e := range edges {
		from, to := e/10, e%10
		includes[from] = append(includes[from], fmt.Sprintf("t%d", to))
	}
	sources := make([]domain.Source, 10)
	for i := range sources {
		sources[i] = domain.Source{ID: domain.NewTemplateID(fmt.Sprintf("t%d", i)), Includes: includes[i]}
	}
	return sources
}

func TestSnapshotProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	edges := gen.SliceOfN(25, gen.IntRange(0, 99))

	properties.Property("rebuild is idempotent", prop.ForAll(
		func(e []int) bool {
			sources := graphFromEdges(e)
			a := domain.BuildSnapshot(1, sources)
			b := domain.BuildSnapshot(1, sources)
			for _, id := range a.IDs() {
				ra, _ := a.RootsOf(id)
				rb, _ := b.RootsOf(id)
				if !reflect.DeepEqual(ra, rb) {
					return false
				}
			}
			return true
		},
		edges,
	))

	properties.Property("children and parents are inverse", prop.ForAll(
		func(e []int) bool {
			s := domain.BuildSnapshot(1, graphFromEdges(e))
			for tpl := range s.Templates() {
				for _, child := range tpl.ChildIDs() {
					c, ok := s.Lookup(child)
					if !ok || !containsID(c.Parents, tpl.ID) {
						return false
					}
				}
				for _, parent := range tpl.Parents {
					p, ok := s.Lookup(parent)
					if !ok || !containsID(p.ChildIDs(), tpl.ID) {
						return false
					}
				}
			}
			return true
		},
		edges,
	))

	properties.Property("cyclic templates have no roots and roots are roots", prop.ForAll(
		func(e []int) bool {
			s := domain.BuildSnapshot(1, graphFromEdges(e))
			for tpl := range s.Templates() {
				if tpl.Cyclic && len(tpl.Roots) > 0 {
					return false
				}
				if tpl.IsRoot() && !reflect.DeepEqual(tpl.Roots, []domain.TemplateID{tpl.ID}) {
					return false
				}
				for _, r := range tpl.Roots {
					if !s.IsRoot(r) {
						return false
					}
				}
			}
			return true
		},
		edges,
	))

	properties.Property("a template lies in the closure of each of its roots", prop.ForAll(
		func(e []int) bool {
			s := domain.BuildSnapshot(1, graphFromEdges(e))
			for tpl := range s.Templates() {
				for _, r := range tpl.Roots {
					if !containsID(s.Closure(r), tpl.ID) {
						return false
					}
				}
			}
			return true
		},
		edges,
	))

	properties.TestingRun(t)
}

func containsID(list []domain.TemplateID, id domain.TemplateID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
