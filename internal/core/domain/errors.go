package domain

import "go.trai.ch/zerr"

var (
	// ErrParse is recorded when an include open marker has no matching close marker.
	ErrParse = zerr.New("malformed include marker")

	// ErrEmptyInclude is recorded when an include marker carries no template name.
	ErrEmptyInclude = zerr.New("empty include name")

	// ErrDanglingReference is recorded when an include points to a template that does not exist.
	ErrDanglingReference = zerr.New("include references a missing template")

	// ErrCyclicInclude is recorded for every template that sits on an include cycle.
	ErrCyclicInclude = zerr.New("cyclic include")

	// ErrRender is returned when the render collaborator fails for a root.
	ErrRender = zerr.New("render failed")

	// ErrUnknownRoot is returned when a render is requested for an id that is not a root
	// in the current snapshot.
	ErrUnknownRoot = zerr.New("unknown root")

	// ErrUnknownTemplate is returned when a query names a template absent from the snapshot.
	ErrUnknownTemplate = zerr.New("unknown template")

	// ErrTemplateNotFound is returned by a template store when the requested file does not exist.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrTemplateReadFailed is returned when a template file exists but cannot be read.
	ErrTemplateReadFailed = zerr.New("failed to read template")

	// ErrTemplateListFailed is returned when the template root cannot be scanned.
	ErrTemplateListFailed = zerr.New("failed to list templates")

	// ErrRootNotRenderable is returned for roots whose include closure holds a parse error or a cycle.
	ErrRootNotRenderable = zerr.New("root is not renderable")

	// ErrCheckFailed is returned by the check command when at least one root cannot be rendered.
	ErrCheckFailed = zerr.New("template check failed")

	// ErrOutOfScope is returned when a path does not lie under the template root.
	ErrOutOfScope = zerr.New("path is outside the template root")

	// ErrConfigNotFound is returned when no .stache.yaml is found walking up from the working directory.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read configuration")

	// ErrConfigParseFailed is returned when the configuration file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse configuration")

	// ErrInvalidConfig is returned when a configuration value is rejected during validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrArtifactWriteFailed is returned when a rendered artifact cannot be persisted.
	ErrArtifactWriteFailed = zerr.New("failed to write artifact")

	// ErrArtifactRemoveFailed is returned when a stale artifact cannot be removed.
	ErrArtifactRemoveFailed = zerr.New("failed to remove artifact")

	// ErrWatcherNotStarted is returned when events are requested from a watcher that was never started.
	ErrWatcherNotStarted = zerr.New("watcher not started")

	// ErrWatcherStartFailed is returned when the file watcher cannot be initialised.
	ErrWatcherStartFailed = zerr.New("failed to start watcher")
)
