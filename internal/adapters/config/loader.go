// Package config provides the configuration loader for stache.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// SupportedVersion is the only configuration schema version understood.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading the OS file system.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// NewLoaderWithFS creates a new Loader reading fsys.
func NewLoaderWithFS(logger ports.Logger, fsys FileSystem) *Loader {
	return &Loader{Logger: logger, FS: fsys}
}

// Load finds the configuration file above cwd and returns the resulting
// configuration. Without a configuration file, defaults rooted at cwd apply.
func (l *Loader) Load(cwd string) (domain.Config, error) {
	configPath, err := l.DiscoverPath(cwd)
	switch {
	case errors.Is(err, domain.ErrConfigNotFound):
		cfg := domain.DefaultConfig(filepath.Clean(cwd))
		return cfg, cfg.Validate()
	case err != nil:
		return domain.Config{}, err
	}
	return l.LoadFile(configPath)
}

// DiscoverPath walks up from cwd and returns the path of the nearest
// configuration file.
func (l *Loader) DiscoverPath(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no configuration above working directory"), "cwd", cwd)
}

// LoadFile reads the configuration file at configPath. Relative paths in the
// file are resolved against its directory.
func (l *Loader) LoadFile(configPath string) (domain.Config, error) {
	var file Stachefile
	if err := l.readAndUnmarshalYAML(configPath, &file); err != nil {
		return domain.Config{}, err
	}

	if file.Version != "" && file.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q; reading it as version %s", domain.ConfigFileName, file.Version, SupportedVersion))
	}

	cfg, err := toDomain(filepath.Dir(configPath), &file)
	if err != nil {
		return domain.Config{}, zerr.With(err, "file", configPath)
	}
	cfg.Source = configPath

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, zerr.With(err, "file", configPath)
	}
	return cfg, nil
}

func toDomain(dir string, file *Stachefile) (domain.Config, error) {
	cfg := domain.DefaultConfig(dir)

	if file.Templates != "" {
		cfg.TemplatesPath = resolvePath(dir, file.Templates)
	}
	if file.Prefix != "" {
		cfg.Prefix = file.Prefix
	}
	if file.Suffix != "" {
		cfg.Suffix = strings.TrimPrefix(file.Suffix, ".")
	}
	if file.Markers.Open != "" {
		cfg.Markers.Open = file.Markers.Open
	}
	if file.Markers.Close != "" {
		cfg.Markers.Close = file.Markers.Close
	}
	if file.Assets != "" {
		cfg.AssetsPath = resolvePath(dir, file.Assets)
	}
	if file.Artifacts != "" {
		cfg.ArtifactsPath = resolvePath(dir, file.Artifacts)
	}
	if file.Render.Format != "" {
		cfg.Format = domain.RenderFormat(strings.ToLower(file.Render.Format))
	}
	if file.Render.Markdown != nil {
		cfg.Markdown = *file.Render.Markdown
	}
	if file.Watch.Debounce != "" {
		d, err := time.ParseDuration(file.Watch.Debounce)
		if err != nil {
			return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "watch.debounce is not a duration"), "debounce", file.Watch.Debounce)
		}
		cfg.Debounce = d
	}
	if file.Cache.ParseEntries != 0 {
		cfg.ParseCacheSize = file.Cache.ParseEntries
	}
	return cfg, nil
}

func resolvePath(dir, configured string) string {
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(dir, configured))
}

// readAndUnmarshalYAML reads a YAML file and decodes it into target,
// rejecting unknown keys.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *Stachefile) error {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "configuration file is gone"), "file", configPath)
		}
		return zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "file", configPath)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "file", configPath)
	}
	return nil
}
