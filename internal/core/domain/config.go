package domain

import (
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
)

// RenderFormat selects the artifact produced by the default renderer.
type RenderFormat string

const (
	// FormatHTML renders a standalone HTML preview document.
	FormatHTML RenderFormat = "html"
	// FormatText renders the expanded template as plain text.
	FormatText RenderFormat = "text"
)

// Ext returns the artifact file extension for the format.
func (f RenderFormat) Ext() string {
	if f == FormatText {
		return ".txt"
	}
	return ".html"
}

// Markers are the delimiters of an include directive.
type Markers struct {
	Open  string
	Close string
}

// DefaultMarkers returns the mustache partial delimiters.
func DefaultMarkers() Markers {
	return Markers{Open: DefaultOpenMarker, Close: DefaultCloseMarker}
}

// Config is the engine configuration. Every path is absolute.
type Config struct {
	// Source is the configuration file the values were read from, if any.
	Source string
	// TemplatesPath is the template root directory.
	TemplatesPath string
	// Prefix is the include-name prefix accepted in front of bare template
	// names on the command line.
	Prefix string
	// Suffix is the template file extension without the dot.
	Suffix  string
	Markers Markers
	// AssetsPath is an optional directory whose changes invalidate every root.
	AssetsPath string
	// ArtifactsPath is where rendered artifacts are persisted.
	ArtifactsPath string
	Format        RenderFormat
	// Markdown converts the expanded template from markdown before wrapping it as HTML.
	Markdown       bool
	Debounce       time.Duration
	ParseCacheSize int
}

// DefaultDebounce is the default quiet period of the watch loop.
const DefaultDebounce = 50 * time.Millisecond

// DefaultConfig returns the configuration used for a project rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		TemplatesPath:  filepath.Join(dir, DefaultTemplatesDir),
		Prefix:         DefaultPrefix,
		Suffix:         DefaultSuffix,
		Markers:        DefaultMarkers(),
		ArtifactsPath:  filepath.Join(dir, DefaultArtifactsPath()),
		Format:         FormatHTML,
		Markdown:       true,
		Debounce:       DefaultDebounce,
		ParseCacheSize: DefaultParseCacheSize,
	}
}

// Scope returns the template scope described by the configuration.
func (c Config) Scope() Scope {
	scope := NewScope(c.TemplatesPath, c.Suffix)
	scope.Prefix = c.Prefix
	return scope
}

// Validate checks the values that the engine cannot work without.
func (c Config) Validate() error {
	switch {
	case c.TemplatesPath == "":
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "templates path is empty"), "field", "templates")
	case !filepath.IsAbs(c.TemplatesPath):
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "templates path must be absolute"), "templates", c.TemplatesPath)
	case c.Suffix == "":
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "suffix is empty"), "field", "suffix")
	case c.Markers.Open == "" || c.Markers.Close == "":
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "include markers must not be empty"), "field", "markers")
	case c.Format != FormatHTML && c.Format != FormatText:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "unknown render format"), "format", string(c.Format))
	case c.Debounce < 0:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "debounce must not be negative"), "debounce", c.Debounce.String())
	case c.ParseCacheSize <= 0:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "parse cache size must be positive"), "parse_entries", c.ParseCacheSize)
	}
	return nil
}
