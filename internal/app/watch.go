package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stache/internal/adapters/detector"
	"go.trai.ch/stache/internal/adapters/linear"
	"go.trai.ch/stache/internal/adapters/telemetry"
	"go.trai.ch/stache/internal/adapters/tui"
	"go.trai.ch/stache/internal/adapters/watcher"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/stache/internal/engine/processor"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// batchBuffer bounds the number of debounced batches and notifications in flight.
const batchBuffer = 16

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Cwd string
	// OutputMode is "auto", "pretty" or "linear". Empty keeps the injected reporter.
	OutputMode string
}

// Watch indexes the templates, renders every root, and then keeps the index
// and the artifacts up to date with file system changes until ctx is done.
// Changes to the configuration file reconfigure the engine in place.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	cfg, err := a.configLoader.Load(opts.Cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	reporter, dash := a.watchReporter(ctx, opts.OutputMode)
	if dash != nil {
		// Quitting the dashboard ends the watch.
		if err := dash.Start(ctx, stop); err != nil {
			return err
		}
		defer func() {
			_ = dash.Stop()
			_ = dash.Wait()
		}()
	}

	// Spans are forwarded to the reporter.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(telemetry.NewBridge(reporter)),
	)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	p, err := processor.New(cfg, processor.Deps{
		Store:     a.store,
		Renderer:  a.renderer,
		Artifacts: a.artifacts,
		Logger:    a.logger,
		Tracer:    telemetry.NewOTelTracerFrom(tp, telemetry.InstrumentationName),
	})
	if err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		return zerr.Wrap(err, "failed to index templates")
	}
	a.observe(p)

	w, err := a.startWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Stop()
	}()

	g, ctx := errgroup.WithContext(ctx)

	batches := make(chan []ports.WatchEvent, batchBuffer)
	notes := make(chan domain.RootsAffected, batchBuffer)

	cancel := p.Subscribe(func(n domain.RootsAffected) {
		select {
		case notes <- n:
		case <-ctx.Done():
		}
	})
	defer cancel()

	debouncer := watcher.NewDebouncer(cfg.Debounce, func(events []ports.WatchEvent) {
		select {
		case batches <- events:
		case <-ctx.Done():
		}
	})

	// Event routine
	g.Go(func() error {
		for event := range w.Events() {
			if ctx.Err() != nil {
				break
			}
			debouncer.Add(event)
		}
		return nil
	})

	// Processing routine
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case events := <-batches:
				a.handleBatch(ctx, p, opts.Cwd, events)
			}
		}
	})

	// Render routine
	g.Go(func() error {
		a.renderAffected(ctx, p, p.Snapshot().Roots())
		for {
			select {
			case <-ctx.Done():
				return nil
			case n := <-notes:
				a.renderAffected(ctx, p, n.Roots)
			}
		}
	})

	a.logger.Info(fmt.Sprintf("watching %s", displayPath(opts.Cwd, cfg.TemplatesPath)))
	return g.Wait()
}

// watchReporter picks the progress reporter for mode. Pretty output returns
// the dashboard as well, which the caller starts and stops. An empty mode
// keeps the injected reporter.
func (a *App) watchReporter(ctx context.Context, mode string) (ports.Reporter, *tui.Dashboard) {
	if mode == "" && a.reporter != nil {
		return a.reporter, nil
	}

	resolved := detector.ResolveMode(detector.DetectEnvironment(), mode)
	if resolved == detector.ModePretty {
		model := tui.NewModel(os.Stderr)
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(os.Stderr)}, a.teaOptions...)
		dash := tui.NewDashboard(&model, optsTea...)
		return dash, dash
	}
	if a.reporter != nil && mode == detector.ModeAuto.String() {
		return a.reporter, nil
	}
	return linear.NewReporter(os.Stderr, linear.ProfileFor(resolved)), nil
}

func (a *App) startWatcher(ctx context.Context, cfg domain.Config) (ports.Watcher, error) {
	w, err := a.watchers()
	if err != nil {
		return nil, err
	}

	roots := []string{cfg.TemplatesPath}
	if cfg.AssetsPath != "" {
		roots = append(roots, cfg.AssetsPath)
	}
	if err := w.Start(ctx, roots...); err != nil {
		_ = w.Stop()
		return nil, err
	}
	if cfg.Source != "" {
		if err := w.WatchFile(cfg.Source); err != nil {
			_ = w.Stop()
			return nil, err
		}
	}
	return w, nil
}

// observe records the contents of every indexed template so that saves
// without edits are not treated as changes.
func (a *App) observe(p *processor.Processor) {
	scope := p.Config().Scope()
	for _, id := range p.Snapshot().IDs() {
		a.coalescer.Observe(scope.PathOf(id))
	}
}

// handleBatch applies one debounced batch. Events on the configuration file
// trigger a reload; everything else goes through the coalescer to Process.
// Notifications reach the render routine through the processor listener.
func (a *App) handleBatch(ctx context.Context, p *processor.Processor, cwd string, events []ports.WatchEvent) {
	source := p.Config().Source

	var rest []ports.WatchEvent
	reload := false
	for _, ev := range events {
		if source != "" && filepath.Clean(ev.Path) == source {
			reload = true
			continue
		}
		rest = append(rest, ev)
	}

	if reload {
		a.reconfigure(ctx, p, cwd)
	}
	if len(rest) == 0 {
		return
	}

	if _, err := p.Process(ctx, a.coalescer.Coalesce(rest)); err != nil {
		a.logger.Error(zerr.Wrap(err, "failed to apply file changes"))
	}
}

func (a *App) reconfigure(ctx context.Context, p *processor.Processor, cwd string) {
	prev := p.Config()

	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		a.logger.Error(zerr.Wrap(err, "configuration not reloaded"))
		return
	}
	if _, err := p.Reconfigure(ctx, cfg); err != nil {
		a.logger.Error(zerr.Wrap(err, "configuration not reloaded"))
		return
	}

	if cfg.TemplatesPath != prev.TemplatesPath || cfg.AssetsPath != prev.AssetsPath {
		a.logger.Warn("watched directories changed; restart watch to follow them")
	}
	a.observe(p)
}

// renderAffected re-renders the roots that are still roots of the current
// snapshot. Render errors are logged; unrenderable roots are reported as warnings.
func (a *App) renderAffected(ctx context.Context, p *processor.Processor, roots []domain.TemplateID) {
	snap := p.Snapshot()
	current := make([]domain.TemplateID, 0, len(roots))
	for _, root := range roots {
		if snap.IsRoot(root) {
			current = append(current, root)
		}
	}

	_, errs := renderRoots(ctx, p, current)
	for i, err := range errs {
		switch {
		case err == nil, ctx.Err() != nil:
		case errors.Is(err, domain.ErrRootNotRenderable):
			a.logger.Warn(fmt.Sprintf("%s is not renderable: %d blocking diagnostic(s)",
				current[i], len(snap.Blocking(current[i]))))
		default:
			a.logger.Error(err)
		}
	}
}
