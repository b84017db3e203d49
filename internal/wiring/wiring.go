// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stache/internal/adapters/artifacts"
	_ "go.trai.ch/stache/internal/adapters/config"
	_ "go.trai.ch/stache/internal/adapters/detector"
	_ "go.trai.ch/stache/internal/adapters/fs"
	_ "go.trai.ch/stache/internal/adapters/linear"
	_ "go.trai.ch/stache/internal/adapters/logger"
	_ "go.trai.ch/stache/internal/adapters/renderer"
	_ "go.trai.ch/stache/internal/adapters/telemetry"
	_ "go.trai.ch/stache/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/stache/internal/app"
)
