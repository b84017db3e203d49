package domain

import "path/filepath"

const (
	// StacheDirName is the name of the internal workspace directory.
	StacheDirName = ".stache"

	// ArtifactsDirName is the directory under StacheDirName holding rendered previews.
	ArtifactsDirName = "artifacts"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = ".stache.yaml"

	// ArtifactInfix is inserted between the flattened root name and the format extension
	// of every artifact file, so artifacts can be told apart from user files.
	ArtifactInfix = ".stache"

	// DefaultTemplatesDir is the template root used when the configuration does not name one.
	DefaultTemplatesDir = "templates"

	// DefaultPrefix is the include-name prefix accepted in front of bare names.
	DefaultPrefix = "templates"

	// DefaultSuffix is the file extension of template files, without the dot.
	DefaultSuffix = "mustache"

	// DefaultOpenMarker opens an include directive.
	DefaultOpenMarker = "{{>"

	// DefaultCloseMarker closes an include directive.
	DefaultCloseMarker = "}}"

	// DefaultParseCacheSize bounds the number of parse results kept by content hash.
	DefaultParseCacheSize = 1024

	// FaultyPartialFormat is rendered in place of an include whose target does not exist.
	FaultyPartialFormat = "[FAULTY_PARTIAL>%s]"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStachePath returns the default root directory for stache metadata.
func DefaultStachePath() string {
	return StacheDirName
}

// DefaultArtifactsPath returns the default directory for rendered artifacts.
// It joins .stache and artifacts.
func DefaultArtifactsPath() string {
	return filepath.Join(StacheDirName, ArtifactsDirName)
}
