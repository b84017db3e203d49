package parser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/engine/parser"
	"go.trai.ch/zerr"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     []string
		wantErr  error
	}{
		{name: "no includes", contents: "<h1>{{title}}</h1>", want: nil},
		{name: "single", contents: "{{> header}}", want: []string{"header"}},
		{name: "no space", contents: "{{>header}}", want: []string{"header"}},
		{name: "padded", contents: "{{>   header   }}", want: []string{"header"}},
		{
			name:     "ordered with text between",
			contents: "{{> header}}\n<main>{{body}}</main>\n{{> partials/footer}}",
			want:     []string{"header", "partials/footer"},
		},
		{name: "repeated names kept", contents: "{{> a}}{{> a}}", want: []string{"a", "a"}},
		{name: "unclosed keeps earlier includes", contents: "{{> a}} text {{> b", want: []string{"a"}, wantErr: domain.ErrParse},
		{name: "unclosed only", contents: "{{> header", want: nil, wantErr: domain.ErrParse},
		{name: "empty name", contents: "{{>}} {{> next}}", want: []string{"next"}, wantErr: domain.ErrEmptyInclude},
		{name: "variables are not includes", contents: "{{name}} {{{raw}}} {{#list}}{{/list}}", want: nil},
	}

	p := parser.New(domain.DefaultMarkers())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.contents)
			assert.Equal(t, tt.want, res.Includes)
			if tt.wantErr == nil {
				assert.NoError(t, res.Err)
				return
			}
			assert.True(t, errors.Is(res.Err, tt.wantErr), "got %v", res.Err)
		})
	}
}

func TestParser_ErrorPosition(t *testing.T) {
	p := parser.New(domain.DefaultMarkers())

	res := p.Parse("line one\nline two {{> broken")
	require.Error(t, res.Err)

	var zErr *zerr.Error
	require.True(t, errors.As(res.Err, &zErr))
	meta := zErr.Metadata()
	assert.Equal(t, 2, meta["line"])
	assert.Equal(t, 18, meta["offset"])
}

func TestParser_FirstProblemWins(t *testing.T) {
	p := parser.New(domain.DefaultMarkers())

	res := p.Parse("{{>}}\n{{> a}}\n{{> b")
	assert.Equal(t, []string{"a"}, res.Includes)
	require.ErrorIs(t, res.Err, domain.ErrEmptyInclude)
	assert.NotErrorIs(t, res.Err, domain.ErrParse)

	var zErr *zerr.Error
	require.ErrorAs(t, res.Err, &zErr)
	assert.Equal(t, 1, zErr.Metadata()["line"])
	assert.Equal(t, 0, zErr.Metadata()["offset"])
}

func TestParser_CustomMarkers(t *testing.T) {
	p := parser.New(domain.Markers{Open: "<%include ", Close: "%>"})

	res := p.Parse("<%include head%><body/><%include foot %>")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"head", "foot"}, res.Includes)
	assert.Equal(t, domain.Markers{Open: "<%include ", Close: "%>"}, p.Markers())
}

func TestParser_EmptyMarkers(t *testing.T) {
	p := parser.New(domain.Markers{})
	res := p.Parse("{{> a}}")
	assert.Empty(t, res.Includes)
	assert.NoError(t, res.Err)
}
