package app_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stache/internal/adapters/artifacts"
	"go.trai.ch/stache/internal/adapters/config"
	"go.trai.ch/stache/internal/adapters/fs"
	"go.trai.ch/stache/internal/adapters/linear"
	"go.trai.ch/stache/internal/adapters/renderer"
	"go.trai.ch/stache/internal/app"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const textConfig = "version: \"1\"\nrender:\n  format: text\nwatch:\n  debounce: 10ms\n"

// project writes files below a fresh directory and returns it.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(contents), domain.FilePerm))
	}
	return dir
}

func newApp(t *testing.T) (*app.App, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	buf := &bytes.Buffer{}
	a := app.New(config.NewLoader(log), fs.NewStore(), renderer.New(), artifacts.Factory{}, log).
		WithReporter(linear.NewReporter(io.Discard, nil)).
		WithOutput(buf)
	return a, buf
}

func basicProject(t *testing.T) string {
	t.Helper()
	return project(t, map[string]string{
		".stache.yaml":              textConfig,
		"templates/index.mustache":  "{{> header}}{{> footer}}",
		"templates/page.mustache":   "{{> footer}}",
		"templates/header.mustache": "H",
		"templates/footer.mustache": "F",
	})
}

func TestApp_Roots(t *testing.T) {
	dir := basicProject(t)
	a, buf := newApp(t)

	err := a.Roots(t.Context(), app.RootsOptions{Cwd: dir, Ref: "templates/footer.mustache"})
	require.NoError(t, err)
	assert.Equal(t, "index\npage\n", buf.String())
}

func TestApp_Roots_ByName(t *testing.T) {
	dir := basicProject(t)
	a, buf := newApp(t)

	require.NoError(t, a.Roots(t.Context(), app.RootsOptions{Cwd: dir, Ref: "header"}))
	assert.Equal(t, "index\n", buf.String())
}

func TestApp_Roots_Errors(t *testing.T) {
	dir := basicProject(t)

	t.Run("unknown template", func(t *testing.T) {
		a, _ := newApp(t)
		err := a.Roots(t.Context(), app.RootsOptions{Cwd: dir, Ref: "nope"})
		require.ErrorIs(t, err, domain.ErrUnknownTemplate)
	})

	t.Run("path outside the template root", func(t *testing.T) {
		a, _ := newApp(t)
		err := a.Roots(t.Context(), app.RootsOptions{Cwd: dir, Ref: "README.mustache"})
		require.ErrorIs(t, err, domain.ErrOutOfScope)
	})
}

func TestApp_Render(t *testing.T) {
	dir := basicProject(t)
	a, buf := newApp(t)

	require.NoError(t, a.Render(t.Context(), app.RenderOptions{Cwd: dir}))

	assert.Equal(t,
		"index -> .stache/artifacts/index.stache.txt\npage -> .stache/artifacts/page.stache.txt\n",
		buf.String())

	data, err := os.ReadFile(filepath.Join(dir, ".stache", "artifacts", "index.stache.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HF", string(data))
}

func TestApp_Render_Stdout(t *testing.T) {
	dir := basicProject(t)
	a, buf := newApp(t)

	require.NoError(t, a.Render(t.Context(), app.RenderOptions{Cwd: dir, Refs: []string{"index"}, Stdout: true}))
	assert.Equal(t, "HF", buf.String())
}

func TestApp_Render_NotARoot(t *testing.T) {
	dir := basicProject(t)
	a, _ := newApp(t)

	err := a.Render(t.Context(), app.RenderOptions{Cwd: dir, Refs: []string{"footer"}})
	require.ErrorIs(t, err, domain.ErrUnknownRoot)
}

func TestApp_Render_ContinuesPastBrokenRoot(t *testing.T) {
	dir := project(t, map[string]string{
		".stache.yaml":              textConfig,
		"templates/broken.mustache": "{{> oops",
		"templates/index.mustache":  "{{> ghost}}ok",
	})
	a, buf := newApp(t)

	err := a.Render(t.Context(), app.RenderOptions{Cwd: dir})
	require.ErrorIs(t, err, domain.ErrRootNotRenderable)
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Equal(t, "index -> .stache/artifacts/index.stache.txt\n", buf.String())

	data, err := os.ReadFile(filepath.Join(dir, ".stache", "artifacts", "index.stache.txt"))
	require.NoError(t, err)
	assert.Equal(t, "[FAULTY_PARTIAL>ghost]ok", string(data))
}

func TestApp_Roots_ArtifactPath(t *testing.T) {
	dir := basicProject(t)
	a, buf := newApp(t)
	require.NoError(t, a.Render(t.Context(), app.RenderOptions{Cwd: dir}))
	buf.Reset()

	err := a.Roots(t.Context(), app.RootsOptions{Cwd: dir, Ref: ".stache/artifacts/page.stache.txt"})
	require.NoError(t, err)
	assert.Equal(t, "page\n", buf.String())
}

func TestApp_Tree(t *testing.T) {
	dir := project(t, map[string]string{
		"templates/index.mustache":  "{{> header}}{{> footer}}{{> missing}}",
		"templates/header.mustache": "{{> nav}}",
		"templates/nav.mustache":    "{{> header}}",
		"templates/footer.mustache": "{{> broken",
	})
	a, buf := newApp(t)

	require.NoError(t, a.Tree(t.Context(), app.TreeOptions{Cwd: dir, Ref: "index"}))

	g := goldie.New(t)
	g.Assert(t, "tree", buf.Bytes())
}

func TestApp_Check(t *testing.T) {
	t.Run("clean project", func(t *testing.T) {
		dir := basicProject(t)
		a, buf := newApp(t)

		require.NoError(t, a.Check(t.Context(), app.CheckOptions{Cwd: dir}))
		assert.Equal(t, "4 template(s), 2 root(s), 0 diagnostic(s), 0 unrenderable root(s)\n", buf.String())
	})

	t.Run("blocking diagnostics fail", func(t *testing.T) {
		dir := project(t, map[string]string{
			"templates/index.mustache":  "{{> ghost}}",
			"templates/broken.mustache": "{{> oops",
		})
		a, buf := newApp(t)

		err := a.Check(t.Context(), app.CheckOptions{Cwd: dir})
		require.ErrorIs(t, err, domain.ErrCheckFailed)

		out := buf.String()
		assert.Contains(t, out, "✗ parse    broken: ")
		assert.Contains(t, out, "! dangling index: ")
		assert.Contains(t, out, "2 template(s), 2 root(s), 2 diagnostic(s), 1 unrenderable root(s)")
	})
}

func TestApp_Clean(t *testing.T) {
	dir := basicProject(t)
	a, _ := newApp(t)
	require.NoError(t, a.Render(t.Context(), app.RenderOptions{Cwd: dir}))

	require.NoError(t, a.Clean(t.Context(), app.CleanOptions{Cwd: dir}))

	_, err := os.Stat(filepath.Join(dir, ".stache", "artifacts"))
	assert.True(t, os.IsNotExist(err))
}

func TestApp_ConfigError(t *testing.T) {
	dir := project(t, map[string]string{".stache.yaml": "render:\n  format: pdf\n"})
	a, _ := newApp(t)

	err := a.Render(t.Context(), app.RenderOptions{Cwd: dir})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
