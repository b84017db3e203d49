package domain

import (
	"path"
	"slices"
	"strings"
	"unique"
)

// TemplateID identifies a template by its slash-separated path relative to the
// template root, without the file suffix. Identity is path based: renaming a
// file yields a different TemplateID.
//
// The name is interned, so ids are cheap to compare and to use as map keys.
type TemplateID struct {
	h unique.Handle[string]
}

// NewTemplateID normalises name and returns its TemplateID.
// Backslashes become slashes, surrounding whitespace and leading slashes are
// dropped, and the result is cleaned. Empty names yield the zero TemplateID.
func NewTemplateID(name string) TemplateID {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return TemplateID{}
	}
	name = path.Clean(name)
	if name == "." {
		return TemplateID{}
	}
	return TemplateID{h: unique.Make(name)}
}

// NewTemplateIDs converts every name with NewTemplateID.
func NewTemplateIDs(names ...string) []TemplateID {
	ids := make([]TemplateID, 0, len(names))
	for _, n := range names {
		ids = append(ids, NewTemplateID(n))
	}
	return ids
}

// IsZero reports whether the id was never assigned a name.
func (id TemplateID) IsZero() bool {
	return id == TemplateID{}
}

// String returns the normalised name.
func (id TemplateID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.h.Value()
}

// Dir returns the slash-separated directory part of the id, or "" at the template root.
func (id TemplateID) Dir() string {
	d := path.Dir(id.String())
	if d == "." {
		return ""
	}
	return d
}

// Within reports whether the id lies in dir or any of its subdirectories.
// The empty dir matches every id.
func (id TemplateID) Within(dir string) bool {
	if dir == "" {
		return !id.IsZero()
	}
	s := id.String()
	return s == dir || strings.HasPrefix(s, dir+"/")
}

// MarshalText implements encoding.TextMarshaler.
func (id TemplateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TemplateID) UnmarshalText(text []byte) error {
	*id = NewTemplateID(string(text))
	return nil
}

// CompareIDs orders ids by name.
func CompareIDs(a, b TemplateID) int {
	return strings.Compare(a.String(), b.String())
}

// SortIDs sorts ids in place by name and drops duplicates.
func SortIDs(ids []TemplateID) []TemplateID {
	slices.SortFunc(ids, CompareIDs)
	return slices.Compact(ids)
}

// IDStrings returns the names of ids in order.
func IDStrings(ids []TemplateID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Edge is one include directive inside a template.
type Edge struct {
	// Target is the resolved id of the included template.
	Target TemplateID
	// Name is the include name as written in the file.
	Name string
	// Missing is set when Target does not exist in the snapshot.
	Missing bool
}

// Template is one node of a snapshot. All slices are owned by the snapshot and
// must not be modified.
type Template struct {
	ID TemplateID
	// Children are the direct includes in file order, one edge per distinct target.
	Children []Edge
	// Parents are the templates including this one, sorted by name.
	Parents []TemplateID
	// Roots is the RootSet: every root reachable by walking Parents upward.
	// It is empty for cyclic templates.
	Roots []TemplateID
	// Cyclic is set when the template sits on an include cycle.
	Cyclic bool
	// Malformed is set when the include scan stopped at a malformed marker.
	Malformed bool
}

// IsRoot reports whether nobody includes the template.
func (t Template) IsRoot() bool {
	return len(t.Parents) == 0
}

// ChildIDs returns the ids of the non-missing children.
func (t Template) ChildIDs() []TemplateID {
	out := make([]TemplateID, 0, len(t.Children))
	for _, e := range t.Children {
		if !e.Missing {
			out = append(out, e.Target)
		}
	}
	return out
}

// Source is the parsed form of one template file, the input to BuildSnapshot.
type Source struct {
	ID TemplateID
	// Includes are the include names in file order.
	Includes []string
	// Err is set when the include scan reported a problem. Includes still hold
	// every name found before the problem.
	Err error
}
