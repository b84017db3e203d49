package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// DiagnosticKind classifies a structural problem found while building a snapshot.
type DiagnosticKind uint8

const (
	// DiagnosticParse marks a malformed include marker.
	DiagnosticParse DiagnosticKind = iota
	// DiagnosticDangling marks an include of a template that does not exist.
	DiagnosticDangling
	// DiagnosticCyclic marks a template on an include cycle.
	DiagnosticCyclic
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticParse:
		return "parse"
	case DiagnosticDangling:
		return "dangling"
	case DiagnosticCyclic:
		return "cyclic"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", k)
	}
}

// Blocking reports whether a root whose closure contains this kind must not be rendered.
// Dangling includes render as faulty partial markers instead.
func (k DiagnosticKind) Blocking() bool {
	return k == DiagnosticParse || k == DiagnosticCyclic
}

// Diagnostic is a problem attached to one template of a snapshot.
type Diagnostic struct {
	Kind     DiagnosticKind
	Template TemplateID
	// Target is the missing include for dangling diagnostics.
	Target TemplateID
	// Err carries the sentinel (ErrParse, ErrDanglingReference, ErrCyclicInclude)
	// and its metadata.
	Err error
}

// Is reports whether the diagnostic carries target in its error chain.
func (d Diagnostic) Is(target error) bool {
	return errors.Is(d.Err, target)
}

func (d Diagnostic) String() string {
	msg := ""
	if d.Err != nil {
		msg = d.Err.Error()
	}
	if d.Kind == DiagnosticDangling {
		return fmt.Sprintf("%s: %s (%s)", d.Template, msg, d.Target)
	}
	return fmt.Sprintf("%s: %s", d.Template, msg)
}

func sortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if c := CompareIDs(a.Template, b.Template); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return CompareIDs(a.Target, b.Target)
	})
}
