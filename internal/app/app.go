// Package app implements the application layer for stache.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/stache/internal/adapters/telemetry"
	"go.trai.ch/stache/internal/adapters/watcher"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/stache/internal/engine/processor"
	"go.trai.ch/stache/internal/ui/output"
	"go.trai.ch/stache/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	store        ports.TemplateStore
	renderer     ports.Renderer
	artifacts    ports.ArtifactStoreFactory
	logger       ports.Logger
	tracer       ports.Tracer
	reporter     ports.Reporter
	watchers     watcher.Factory
	coalescer    *watcher.Coalescer
	teaOptions   []tea.ProgramOption
	out          io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	store ports.TemplateStore,
	renderer ports.Renderer,
	artifacts ports.ArtifactStoreFactory,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		store:        store,
		renderer:     renderer,
		artifacts:    artifacts,
		logger:       log,
		tracer:       telemetry.NewNoOpTracer(),
		watchers:     watcher.NewFactory(),
		coalescer:    watcher.NewCoalescer(watcher.NewContentTracker()),
		out:          os.Stdout,
	}
}

// WithTracer sets the tracer used by one-shot commands.
func (a *App) WithTracer(t ports.Tracer) *App {
	a.tracer = t
	return a
}

// WithReporter sets the reporter that receives render progress in watch mode.
func (a *App) WithReporter(r ports.Reporter) *App {
	a.reporter = r
	return a
}

// WithWatcherFactory replaces the file watcher used by Watch.
func (a *App) WithWatcherFactory(f watcher.Factory) *App {
	a.watchers = f
	return a
}

// WithCoalescer replaces the event coalescer used by Watch.
func (a *App) WithCoalescer(c *watcher.Coalescer) *App {
	a.coalescer = c
	return a
}

// WithTeaOptions adds options for the watch dashboard program.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects command results. Logs are not affected.
func (a *App) WithOutput(w io.Writer) *App {
	if w == nil {
		w = os.Stdout
	}
	a.out = w
	return a
}

// open loads the configuration found from cwd and indexes the templates.
func (a *App) open(ctx context.Context, cwd string, tracer ports.Tracer) (*processor.Processor, error) {
	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	p, err := processor.New(cfg, processor.Deps{
		Store:     a.store,
		Renderer:  a.renderer,
		Artifacts: a.artifacts,
		Logger:    a.logger,
		Tracer:    tracer,
	})
	if err != nil {
		return nil, err
	}
	if err := p.Load(ctx); err != nil {
		return nil, zerr.Wrap(err, "failed to index templates")
	}
	return p, nil
}

// RootsOptions configuration for the Roots method.
type RootsOptions struct {
	Cwd string
	// Ref is a template path, an artifact path or a template name.
	Ref string
}

// Roots prints the roots that include the referenced template, one per line.
func (a *App) Roots(ctx context.Context, opts RootsOptions) error {
	p, err := a.open(ctx, opts.Cwd, a.tracer)
	if err != nil {
		return err
	}

	id, err := p.Resolve(opts.Cwd, opts.Ref)
	if err != nil {
		return err
	}
	roots, err := p.RootsOf(id)
	if err != nil {
		return err
	}

	for _, root := range roots {
		_, _ = fmt.Fprintln(a.out, root)
	}
	return nil
}

// RenderOptions configuration for the Render method.
type RenderOptions struct {
	Cwd string
	// Refs name the roots to render. Empty renders every root.
	Refs []string
	// Stdout writes the rendered bytes instead of the artifact paths.
	Stdout bool
}

// Render renders roots through the render cache and prints where each
// artifact was written. Every root is attempted; failures are returned joined.
func (a *App) Render(ctx context.Context, opts RenderOptions) error {
	p, err := a.open(ctx, opts.Cwd, a.tracer)
	if err != nil {
		return err
	}

	roots := p.Snapshot().Roots()
	if len(opts.Refs) > 0 {
		roots = make([]domain.TemplateID, 0, len(opts.Refs))
		for _, ref := range opts.Refs {
			id, err := p.Resolve(opts.Cwd, ref)
			if err != nil {
				return err
			}
			roots = append(roots, id)
		}
	}

	artifacts, errs := renderRoots(ctx, p, roots)
	for i, art := range artifacts {
		if errs[i] != nil {
			continue
		}
		if opts.Stdout {
			_, _ = a.out.Write(art.Data)
			continue
		}
		_, _ = fmt.Fprintf(a.out, "%s -> %s\n", art.Root, displayPath(opts.Cwd, art.Path))
	}

	return errors.Join(errs...)
}

// renderRoots renders roots in parallel. Results and errors are indexed like roots.
func renderRoots(
	ctx context.Context,
	p *processor.Processor,
	roots []domain.TemplateID,
) ([]domain.Artifact, []error) {
	artifacts := make([]domain.Artifact, len(roots))
	errs := make([]error, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, root := range roots {
		g.Go(func() error {
			artifacts[i], errs[i] = p.GetOrRender(ctx, root)
			return nil
		})
	}
	_ = g.Wait()

	return artifacts, errs
}

// TreeOptions configuration for the Tree method.
type TreeOptions struct {
	Cwd string
	Ref string
}

// Tree prints the include structure below the referenced template.
func (a *App) Tree(ctx context.Context, opts TreeOptions) error {
	p, err := a.open(ctx, opts.Cwd, a.tracer)
	if err != nil {
		return err
	}

	id, err := p.Resolve(opts.Cwd, opts.Ref)
	if err != nil {
		return err
	}
	tree, err := p.Snapshot().IncludeTree(id)
	if err != nil {
		return err
	}

	out := output.New(a.out)
	_, _ = fmt.Fprintln(a.out, output.Paint(out, tree.ID.String(), string(style.Iris))+nodeFlags(tree))
	writeTree(a.out, tree.Children, "")
	return nil
}

func writeTree(w io.Writer, nodes []*domain.IncludeNode, indent string) {
	for i, node := range nodes {
		branch, next := style.Branch, style.Pipe
		if i == len(nodes)-1 {
			branch, next = style.Last, style.Blank
		}
		_, _ = fmt.Fprintf(w, "%s%s%s%s\n", indent, branch, node.ID, nodeFlags(node))
		writeTree(w, node.Children, indent+next)
	}
}

func nodeFlags(node *domain.IncludeNode) string {
	var flags []string
	if node.Missing {
		flags = append(flags, "missing")
	}
	if node.Repeated {
		flags = append(flags, "cycle")
	}
	if node.Malformed {
		flags = append(flags, "malformed")
	}
	if len(flags) == 0 {
		return ""
	}
	return " (" + strings.Join(flags, ", ") + ")"
}

// CheckOptions configuration for the Check method.
type CheckOptions struct {
	Cwd string
}

// Check prints every diagnostic of the template set followed by a summary.
// It fails when at least one root cannot be rendered.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	p, err := a.open(ctx, opts.Cwd, a.tracer)
	if err != nil {
		return err
	}
	snap := p.Snapshot()

	out := output.New(a.out)
	for _, d := range snap.Diagnostics() {
		icon := output.Paint(out, style.Warning, string(style.Yellow))
		if d.Kind.Blocking() {
			icon = output.Paint(out, style.Cross, string(style.Red))
		}
		_, _ = fmt.Fprintf(a.out, "%s %-8s %s\n", icon, d.Kind, d)
	}

	var blocked []string
	for _, root := range snap.Roots() {
		if len(snap.Blocking(root)) > 0 {
			blocked = append(blocked, root.String())
		}
	}

	_, _ = fmt.Fprintf(a.out, "%d template(s), %d root(s), %d diagnostic(s), %d unrenderable root(s)\n",
		snap.Len(), len(snap.Roots()), len(snap.Diagnostics()), len(blocked))

	if len(blocked) > 0 {
		return zerr.With(zerr.Wrap(domain.ErrCheckFailed, "some roots cannot be rendered"), "roots", blocked)
	}
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Cwd string
}

// Clean removes the artifact directory of the configured project.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	cfg, err := a.configLoader.Load(opts.Cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	store, err := a.artifacts.Open(cfg.ArtifactsPath, cfg.Format)
	if err != nil {
		return err
	}
	if err := store.Clean(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove artifacts"), "dir", store.Dir())
	}

	a.logger.Info("removed " + displayPath(opts.Cwd, store.Dir()))
	return nil
}

// displayPath shortens path relative to cwd when it lies below it.
func displayPath(cwd, path string) string {
	if path == "" || cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
