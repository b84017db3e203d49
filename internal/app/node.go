package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stache/internal/adapters/artifacts"
	"go.trai.ch/stache/internal/adapters/config"
	"go.trai.ch/stache/internal/adapters/fs"
	"go.trai.ch/stache/internal/adapters/linear"
	"go.trai.ch/stache/internal/adapters/logger"
	"go.trai.ch/stache/internal/adapters/renderer"
	"go.trai.ch/stache/internal/adapters/telemetry"
	"go.trai.ch/stache/internal/adapters/watcher"
	"go.trai.ch/stache/internal/core/ports"
)

// AppNodeID is the unique identifier for the App Graft node.
const AppNodeID graft.ID = "app.main"

// ComponentsNodeID is the unique identifier for the Components Graft node.
const ComponentsNodeID graft.ID = "app.components"

// Components holds everything the command line entry point needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.StoreNodeID,
			renderer.NodeID,
			artifacts.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			linear.NodeID,
			watcher.FactoryNodeID,
			watcher.CoalescerNodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.TemplateStore](ctx)
			if err != nil {
				return nil, err
			}
			render, err := graft.Dep[ports.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			arts, err := graft.Dep[ports.ArtifactStoreFactory](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			reporter, err := graft.Dep[ports.Reporter](ctx)
			if err != nil {
				return nil, err
			}
			watchers, err := graft.Dep[watcher.Factory](ctx)
			if err != nil {
				return nil, err
			}
			coalescer, err := graft.Dep[*watcher.Coalescer](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, store, render, arts, log).
				WithTracer(tracer).
				WithReporter(reporter).
				WithWatcherFactory(watchers).
				WithCoalescer(coalescer), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}
