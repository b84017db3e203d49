package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stache/internal/core/domain"
)

func TestNewTemplateID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "header", want: "header"},
		{in: " header ", want: "header"},
		{in: "partials/header", want: "partials/header"},
		{in: `partials\header`, want: "partials/header"},
		{in: "./partials//header", want: "partials/header"},
		{in: "/header", want: "header"},
		{in: "", want: ""},
		{in: ".", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id := domain.NewTemplateID(tt.in)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.want == "", id.IsZero())
		})
	}
}

func TestTemplateID_Within(t *testing.T) {
	id := domain.NewTemplateID("mail/parts/footer")

	assert.True(t, id.Within(""))
	assert.True(t, id.Within("mail"))
	assert.True(t, id.Within("mail/parts"))
	assert.True(t, id.Within("mail/parts/footer"))
	assert.False(t, id.Within("mai"))
	assert.False(t, id.Within("mail/part"))
	assert.Equal(t, "mail/parts", id.Dir())
	assert.Empty(t, domain.NewTemplateID("index").Dir())
}

func TestTemplateID_Text(t *testing.T) {
	var id domain.TemplateID
	assert.NoError(t, id.UnmarshalText([]byte("a/b")))
	assert.Equal(t, domain.NewTemplateID("a/b"), id)

	text, err := id.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "a/b", string(text))
}

func TestScope_IDOf(t *testing.T) {
	root := filepath.FromSlash("/project/templates")
	scope := domain.NewScope(root, ".mustache")

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "top level", path: "/project/templates/index.mustache", want: "index", wantOK: true},
		{name: "nested", path: "/project/templates/mail/welcome.mustache", want: "mail/welcome", wantOK: true},
		{name: "wrong suffix", path: "/project/templates/index.txt", wantOK: false},
		{name: "bare suffix", path: "/project/templates/.mustache", wantOK: false},
		{name: "root itself", path: "/project/templates", wantOK: false},
		{name: "sibling prefix", path: "/project/templates2/index.mustache", wantOK: false},
		{name: "outside", path: "/project/other/index.mustache", wantOK: false},
		{name: "empty", path: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := scope.IDOf(filepath.FromSlash(tt.path))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, id.String())
			}
		})
	}
}

func TestScope_PathOfAndRel(t *testing.T) {
	root := filepath.FromSlash("/project/templates")
	scope := domain.NewScope(root, "mustache")

	p := scope.PathOf(domain.NewTemplateID("mail/welcome"))
	assert.Equal(t, filepath.FromSlash("/project/templates/mail/welcome.mustache"), p)

	id, ok := scope.IDOf(p)
	assert.True(t, ok)
	assert.Equal(t, "mail/welcome", id.String())

	rel, ok := scope.Rel(filepath.FromSlash("/project/templates/mail"))
	assert.True(t, ok)
	assert.Equal(t, "mail", rel)
	assert.True(t, scope.Under(root))
	assert.False(t, scope.Under(filepath.FromSlash("/project")))
}

func TestScope_Resolve(t *testing.T) {
	root := filepath.FromSlash("/project/templates")
	scope := domain.NewScope(root, "mustache")
	cwd := filepath.FromSlash("/project")

	id, ok := scope.Resolve(cwd, filepath.FromSlash("templates/index.mustache"))
	assert.True(t, ok)
	assert.Equal(t, "index", id.String())

	id, ok = scope.Resolve(cwd, "partials/header")
	assert.True(t, ok)
	assert.Equal(t, "partials/header", id.String())

	_, ok = scope.Resolve(cwd, filepath.FromSlash("elsewhere/index.mustache"))
	assert.False(t, ok)
}

func TestScope_Unqualify(t *testing.T) {
	scope := domain.NewScope(filepath.FromSlash("/project/templates"), "mustache")

	_, ok := scope.Unqualify(domain.NewTemplateID("templates/header"))
	assert.False(t, ok, "no prefix configured")

	scope.Prefix = "templates"
	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{id: "templates/header", want: "header", wantOK: true},
		{id: "templates/partials/nav", want: "partials/nav", wantOK: true},
		{id: "header"},
		{id: "templates"},
		{id: "templatesx/header"},
	}
	for _, tt := range tests {
		got, ok := scope.Unqualify(domain.NewTemplateID(tt.id))
		assert.Equal(t, tt.wantOK, ok, tt.id)
		if tt.wantOK {
			assert.Equal(t, tt.want, got.String(), tt.id)
		}
	}
}
