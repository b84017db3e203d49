package config

// Stachefile represents the structure of the .stache.yaml configuration file.
type Stachefile struct {
	Version   string     `yaml:"version"`
	Templates string     `yaml:"templates"`
	Prefix    string     `yaml:"prefix"`
	Suffix    string     `yaml:"suffix"`
	Markers   MarkersDTO `yaml:"markers"`
	Assets    string     `yaml:"assets"`
	Artifacts string     `yaml:"artifacts"`
	Render    RenderDTO  `yaml:"render"`
	Watch     WatchDTO   `yaml:"watch"`
	Cache     CacheDTO   `yaml:"cache"`
}

// MarkersDTO holds the include directive delimiters.
type MarkersDTO struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// RenderDTO configures the default renderer.
type RenderDTO struct {
	Format   string `yaml:"format"`
	Markdown *bool  `yaml:"markdown"`
}

// WatchDTO configures the watch loop.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}

// CacheDTO configures the engine caches.
type CacheDTO struct {
	ParseEntries int `yaml:"parse_entries"`
}
