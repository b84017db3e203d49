// Package artifacts persists rendered artifacts, one file per root.
package artifacts

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactStore = (*Store)(nil)

// ManifestName is the file recording which root every artifact belongs to.
const ManifestName = "manifest.json"

// record is one manifest entry.
type record struct {
	Root      string    `json:"root"`
	File      string    `json:"file"`
	Digest    uint64    `json:"digest"`
	WrittenAt time.Time `json:"written_at"`
}

// Store implements ports.ArtifactStore on a directory. Writes of bytes
// identical to the stored artifact are skipped.
type Store struct {
	dir string
	ext string
	now func() time.Time

	mu      sync.Mutex
	records map[string]record
	byFile  map[string]string
}

// NewStore opens the artifact directory dir for format. A missing directory
// is created on the first write; an unreadable manifest starts empty.
func NewStore(dir string, format domain.RenderFormat) (*Store, error) {
	s := &Store{
		dir:     dir,
		ext:     format.Ext(),
		now:     time.Now,
		records: make(map[string]record),
		byFile:  make(map[string]string),
	}

	//nolint:gosec // Path is constructed from the configured artifact directory
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, zerr.With(errors.Join(domain.ErrArtifactWriteFailed, err), "dir", dir)
	}

	var records []record
	if json.Unmarshal(data, &records) == nil {
		for _, r := range records {
			s.records[r.Root] = r
			s.byFile[r.File] = r.Root
		}
	}
	return s, nil
}

// Root names are flattened into file names by turning "/" into "_". Literal
// "_" and the escape character itself are percent-escaped so that no two
// roots share a file.
var (
	nameEncoder = strings.NewReplacer("%", "%25", "_", "%5F", "/", "_")
	nameDecoder = strings.NewReplacer("%25", "%", "%5F", "_", "_", "/")
)

// FileName returns the artifact file name of root.
func FileName(root domain.TemplateID, ext string) string {
	return nameEncoder.Replace(root.String()) + domain.ArtifactInfix + ext
}

// Put writes data as the artifact of root and returns its path.
func (s *Store) Put(root domain.TemplateID, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(root, s.ext)
	path := filepath.Join(s.dir, name)
	digest := xxhash.Sum64(data)

	if r, ok := s.records[root.String()]; ok && r.Digest == digest {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return "", zerr.With(errors.Join(domain.ErrArtifactWriteFailed, err), "dir", s.dir)
	}
	//nolint:gosec // Path is constructed from the artifact directory and a sanitized root name
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return "", zerr.With(errors.Join(domain.ErrArtifactWriteFailed, err), "file", path)
	}

	s.records[root.String()] = record{Root: root.String(), File: name, Digest: digest, WrittenAt: s.now().UTC()}
	s.byFile[name] = root.String()
	return path, s.saveLocked()
}

// Remove deletes the artifact of root.
func (s *Store) Remove(root domain.TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(root, s.ext)
	if r, ok := s.records[root.String()]; ok {
		name = r.File
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(errors.Join(domain.ErrArtifactRemoveFailed, err), "root", root.String())
	}

	if _, ok := s.records[root.String()]; !ok {
		return nil
	}
	delete(s.records, root.String())
	if s.byFile[name] == root.String() {
		delete(s.byFile, name)
	}
	return s.saveLocked()
}

// RootFor maps an artifact file back to its root. Paths outside the artifact
// directory are rejected.
func (s *Store) RootFor(path string) (domain.TemplateID, bool) {
	abs, err := filepath.Abs(path)
	if err != nil || filepath.Dir(abs) != filepath.Clean(s.dir) {
		return domain.TemplateID{}, false
	}
	name := filepath.Base(abs)

	s.mu.Lock()
	root, ok := s.byFile[name]
	s.mu.Unlock()
	if ok {
		return domain.NewTemplateID(root), true
	}

	// Artifacts written by an older manifest: undo the file name mapping.
	stem, found := strings.CutSuffix(name, domain.ArtifactInfix+s.ext)
	if !found || stem == "" {
		return domain.TemplateID{}, false
	}
	id := domain.NewTemplateID(nameDecoder.Replace(stem))
	return id, !id.IsZero()
}

// Clean removes the artifact directory.
func (s *Store) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return zerr.With(errors.Join(domain.ErrArtifactRemoveFailed, err), "dir", s.dir)
	}
	s.records = make(map[string]record)
	s.byFile = make(map[string]string)
	return nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) saveLocked() error {
	records := make([]record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b record) int { return strings.Compare(a.Root, b.Root) })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode artifact manifest")
	}
	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrArtifactWriteFailed, err), "dir", s.dir)
	}
	//nolint:gosec // Path is constructed from the configured artifact directory
	if err := os.WriteFile(filepath.Join(s.dir, ManifestName), data, domain.FilePerm); err != nil {
		return zerr.With(errors.Join(domain.ErrArtifactWriteFailed, err), "file", ManifestName)
	}
	return nil
}
