package processor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stache/internal/adapters/fs"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/stache/internal/core/ports/mocks"
	"go.trai.ch/stache/internal/engine/processor"
	"go.uber.org/mock/gomock"
)

const projectDir = "/proj"

type harness struct {
	files   fstest.MapFS
	proc    *processor.Processor
	renders atomic.Int32
}

func ids(names ...string) []domain.TemplateID {
	return domain.NewTemplateIDs(names...)
}

func tpl(name string) string {
	return projectDir + "/templates/" + name + ".mustache"
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()

	h := &harness{files: fstest.MapFS{}}
	for name, body := range files {
		h.files[name+".mustache"] = &fstest.MapFile{Data: []byte(body)}
	}

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.RenderRequest) ([]byte, error) {
			h.renders.Add(1)
			return []byte(req.Root.String() + ":" + req.Contents), nil
		}).
		AnyTimes()

	proc, err := processor.New(domain.DefaultConfig(projectDir), processor.Deps{
		Store:    fs.NewStoreFS(h.files),
		Renderer: renderer,
		Logger:   logger,
	})
	require.NoError(t, err)
	require.NoError(t, proc.Load(context.Background()))
	h.proc = proc
	return h
}

func (h *harness) write(name, body string) {
	h.files[name+".mustache"] = &fstest.MapFile{Data: []byte(body)}
}

func (h *harness) remove(name string) {
	delete(h.files, name+".mustache")
}

func (h *harness) render(t *testing.T, roots ...string) {
	t.Helper()
	for _, r := range ids(roots...) {
		_, err := h.proc.GetOrRender(context.Background(), r)
		require.NoError(t, err)
	}
}

func (h *harness) valid(t *testing.T, root string) bool {
	t.Helper()
	e, ok := h.proc.Entry(domain.NewTemplateID(root))
	require.True(t, ok, "no cache entry for %s", root)
	return e.Valid
}

func TestProcessor_RootsOf(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":  "{{>header}} body {{>footer}}",
		"header": "<h1>",
		"footer": "</h1>",
	})

	roots, err := h.proc.RootsOf(domain.NewTemplateID("header"))
	require.NoError(t, err)
	assert.Equal(t, ids("index"), roots)

	roots, err = h.proc.RootsOf(domain.NewTemplateID("index"))
	require.NoError(t, err)
	assert.Equal(t, ids("index"), roots)

	roots, err = h.proc.RootsOfPath(tpl("footer"))
	require.NoError(t, err)
	assert.Equal(t, ids("index"), roots)

	_, err = h.proc.RootsOf(domain.NewTemplateID("nope"))
	require.ErrorIs(t, err, domain.ErrUnknownTemplate)

	_, err = h.proc.RootsOfPath("/elsewhere/readme.md")
	require.ErrorIs(t, err, domain.ErrOutOfScope)
}

func TestProcessor_Resolve(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":            "{{>header}}",
		"header":           "<h1>",
		"templates/legacy": "old",
		"legacy":           "new",
	})

	tests := []struct {
		name    string
		cwd     string
		ref     string
		want    string
		wantErr error
	}{
		{name: "path relative to the project", cwd: projectDir, ref: "templates/header.mustache", want: "header"},
		{name: "path relative to the template root", cwd: projectDir + "/templates", ref: "header.mustache", want: "header"},
		{name: "absolute path", cwd: "/", ref: tpl("index"), want: "index"},
		{name: "bare name", cwd: projectDir, ref: "header", want: "header"},
		{name: "bare name not indexed", cwd: projectDir, ref: "nav", wantErr: domain.ErrUnknownTemplate},
		{name: "name qualified with the prefix", cwd: projectDir, ref: "templates/header", want: "header"},
		{name: "indexed name wins over the stripped one", cwd: projectDir, ref: "templates/legacy", want: "templates/legacy"},
		{name: "qualified name not indexed", cwd: projectDir, ref: "templates/nav", wantErr: domain.ErrUnknownTemplate},
		{name: "template file outside the root", cwd: projectDir, ref: "readme.mustache", wantErr: domain.ErrOutOfScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := h.proc.Resolve(tt.cwd, tt.ref)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestProcessor_GetOrRender_Caches(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "hello"})
	root := domain.NewTemplateID("index")

	first, err := h.proc.GetOrRender(context.Background(), root)
	require.NoError(t, err)
	second, err := h.proc.GetOrRender(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Generation, second.Generation)
	assert.Equal(t, "index:hello", string(second.Data))
	assert.Equal(t, int32(1), h.renders.Load())
}

func TestProcessor_GetOrRender_Refusals(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":  "{{>header}}",
		"header": "h",
		"broken": "{{>bad",
		"page":   "{{>loop}}",
		"loop":   "{{>loop}}",
		"lonely": "{{>missing}}",
	})

	_, err := h.proc.GetOrRender(context.Background(), domain.NewTemplateID("header"))
	require.ErrorIs(t, err, domain.ErrUnknownRoot)

	_, err = h.proc.GetOrRender(context.Background(), domain.NewTemplateID("broken"))
	require.ErrorIs(t, err, domain.ErrRootNotRenderable)
	require.ErrorIs(t, err, domain.ErrParse)

	_, err = h.proc.GetOrRender(context.Background(), domain.NewTemplateID("page"))
	require.ErrorIs(t, err, domain.ErrRootNotRenderable)
	require.ErrorIs(t, err, domain.ErrCyclicInclude)

	// Dangling includes do not block rendering.
	_, err = h.proc.GetOrRender(context.Background(), domain.NewTemplateID("lonely"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), h.renders.Load())
}

func TestProcessor_FooterEditInvalidatesIndexOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":  "{{>header}}{{>footer}}",
		"header": "<h1>",
		"footer": "</h1>",
		"about":  "{{>header}}",
	})
	h.render(t, "index", "about")

	h.write("footer", "<footer/>")
	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{
		OldPath: tpl("footer"), NewPath: tpl("footer"),
		Kind: domain.ChangeContent, ContentChanged: true,
	}})
	require.NoError(t, err)

	assert.Equal(t, ids("index"), n.Roots)
	assert.True(t, n.IsOrigin(domain.NewTemplateID("footer")))
	assert.False(t, n.Full)
	assert.NotEmpty(t, n.BatchID)
	assert.False(t, h.valid(t, "index"))
	assert.True(t, h.valid(t, "about"))

	a, err := h.proc.GetOrRender(context.Background(), domain.NewTemplateID("index"))
	require.NoError(t, err)
	assert.Equal(t, "index:{{>header}}{{>footer}}", string(a.Data))
	assert.Equal(t, int32(3), h.renders.Load())
}

func TestProcessor_MoveLeafOutOfScope(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"root":      "{{>mid}}",
		"mid":       "{{>leaf}}",
		"leaf":      "leaf",
		"unrelated": "alone",
	})
	h.render(t, "root", "unrelated")

	h.remove("leaf")
	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{
		OldPath: tpl("leaf"),
		NewPath: projectDir + "/archive/leaf.mustache",
		Kind:    domain.ChangeMove,
	}})
	require.NoError(t, err)

	assert.Equal(t, ids("root"), n.Roots)
	assert.False(t, h.valid(t, "root"))
	assert.True(t, h.valid(t, "unrelated"))

	// The dangling include is tolerated; root renders again.
	_, err = h.proc.GetOrRender(context.Background(), domain.NewTemplateID("root"))
	require.NoError(t, err)
	assert.True(t, h.valid(t, "root"))
}

func TestProcessor_RenameUnionsOldAndNewRoots(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":  "{{>header}}",
		"header": "h",
		"other":  "o",
	})
	h.render(t, "index", "other")

	h.remove("header")
	h.write("heading", "h")
	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{
		OldPath: tpl("header"), NewPath: tpl("heading"), Kind: domain.ChangeRename,
	}})
	require.NoError(t, err)

	assert.Equal(t, ids("heading", "index"), n.Roots)
	assert.Equal(t, ids("header", "heading"), n.Origins)
	assert.False(t, h.valid(t, "index"))
	assert.True(t, h.valid(t, "other"))

	roots, err := h.proc.RootsOf(domain.NewTemplateID("heading"))
	require.NoError(t, err)
	assert.Equal(t, ids("heading"), roots)
}

func TestProcessor_DirectoryMove(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"index":         "{{>partials/nav}}",
		"partials/nav":  "{{>partials/item}}",
		"partials/item": "i",
		"about":         "a",
	})
	h.render(t, "index", "about")

	h.remove("partials/nav")
	h.remove("partials/item")
	h.write("blocks/nav", "{{>partials/item}}")
	h.write("blocks/item", "i")

	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{
		OldPath: projectDir + "/templates/partials",
		NewPath: projectDir + "/templates/blocks",
		Kind:    domain.ChangeMove,
		IsDir:   true,
	}})
	require.NoError(t, err)

	// blocks/nav and blocks/item are not included by anyone: each is a new root.
	assert.Equal(t, ids("blocks/item", "blocks/nav", "index"), n.Roots)
	assert.Equal(t, ids("blocks/item", "blocks/nav", "partials/item", "partials/nav"), n.Origins)
	assert.False(t, h.valid(t, "index"))
	assert.True(t, h.valid(t, "about"))
}

func TestProcessor_IgnoredBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "i"})
	gen := h.proc.Snapshot().Generation()

	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{
		{NewPath: projectDir + "/README.md", Kind: domain.ChangeCreate},
		{NewPath: projectDir + "/templates/notes.txt", Kind: domain.ChangeCreate},
		{OldPath: tpl("index"), NewPath: tpl("index"), Kind: domain.ChangeContent},
	})
	require.NoError(t, err)

	assert.Empty(t, n.BatchID)
	assert.Equal(t, gen, h.proc.Snapshot().Generation())
}

func TestProcessor_DeleteRootEvicts(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "i", "about": "a"})
	h.render(t, "index", "about")

	h.remove("about")
	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{OldPath: tpl("about"), Kind: domain.ChangeDelete}})
	require.NoError(t, err)

	assert.Equal(t, ids("about"), n.Roots)
	_, ok := h.proc.Entry(domain.NewTemplateID("about"))
	assert.False(t, ok)
	assert.True(t, h.valid(t, "index"))

	_, err = h.proc.GetOrRender(context.Background(), domain.NewTemplateID("about"))
	require.ErrorIs(t, err, domain.ErrUnknownRoot)
}

func TestProcessor_NewParentDemotesRoot(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"card": "c"})
	h.render(t, "card")

	h.write("page", "{{>card}}")
	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{NewPath: tpl("page"), Kind: domain.ChangeCreate}})
	require.NoError(t, err)

	assert.Equal(t, ids("page"), n.Roots)
	_, ok := h.proc.Entry(domain.NewTemplateID("card"))
	assert.False(t, ok, "card is no longer a root and must be evicted")
}

func TestProcessor_Subscribe(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "i"})

	var got []domain.RootsAffected
	cancel := h.proc.Subscribe(func(n domain.RootsAffected) { got = append(got, n) })

	content := []domain.ChangeEvent{{OldPath: tpl("index"), NewPath: tpl("index"), Kind: domain.ChangeContent, ContentChanged: true}}
	_, err := h.proc.Process(context.Background(), content)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ids("index"), got[0].Roots)

	cancel()
	cancel()
	_, err = h.proc.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProcessor_AssetsInvalidateAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "i", "about": "a"})
	cfg := h.proc.Config()
	cfg.AssetsPath = projectDir + "/fonts"
	_, err := h.proc.Reconfigure(context.Background(), cfg)
	require.NoError(t, err)
	h.render(t, "index", "about")

	n, err := h.proc.Process(context.Background(), []domain.ChangeEvent{{NewPath: projectDir + "/fonts/serif.ttf", Kind: domain.ChangeCreate}})
	require.NoError(t, err)

	assert.True(t, n.Full)
	assert.Equal(t, ids("about", "index"), n.Roots)
	assert.False(t, h.valid(t, "index"))
	assert.False(t, h.valid(t, "about"))
}

func TestProcessor_Reconfigure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "{{>header}}", "header": "h"})
	h.files["page.tpl"] = &fstest.MapFile{Data: []byte("[[>index]]")}
	h.render(t, "index")

	cfg := h.proc.Config()
	cfg.Suffix = "tpl"
	cfg.Markers = domain.Markers{Open: "[[>", Close: "]]"}
	n, err := h.proc.Reconfigure(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, n.Full)
	assert.Equal(t, ids("index", "page"), n.Roots)
	assert.Equal(t, "tpl", h.proc.Config().Suffix)
	assert.Equal(t, []string{"page"}, domain.IDStrings(h.proc.Snapshot().IDs()))
	_, ok := h.proc.Entry(domain.NewTemplateID("index"))
	assert.False(t, ok)

	bad := cfg
	bad.Suffix = ""
	_, err = h.proc.Reconfigure(context.Background(), bad)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, "tpl", h.proc.Config().Suffix)
}

func TestProcessor_InvalidateAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"index": "i", "about": "a"})
	h.render(t, "index", "about")

	n := h.proc.InvalidateAll(context.Background(), domain.TemplateID{})
	assert.True(t, n.Full)
	assert.Equal(t, ids("about", "index"), n.Roots)
	assert.False(t, h.valid(t, "index"))
	assert.False(t, h.valid(t, "about"))
}
