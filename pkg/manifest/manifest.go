package manifest

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openmined/arfsync/pkg/arfs"
)

const (
	// ContentType is the content type manifests are uploaded with.
	ContentType = "application/x.arweave-manifest+json"
	// Kind tags the document format.
	Kind = "arweave/paths"
	// Version of the path manifest format.
	Version = "0.1.0"
	// IndexFile is preferred as the index when present at the manifest root.
	IndexFile = "index.html"
)

var (
	ErrNoEntries = errors.New("manifest: no entries")
)

// Entry is an uploaded file or folder, identified by its full local or
// drive path.
type Entry struct {
	Path        string
	ContentID   arfs.TransactionID
	ContentType string
	Kind        arfs.EntityKind
}

type Index struct {
	Path string `json:"path"`
}

type PathEntry struct {
	ID arfs.TransactionID `json:"id"`
}

// Manifest maps paths relative to the uploaded root onto content ids.
// Paths are encoded in ascending order.
type Manifest struct {
	Manifest string               `json:"manifest"`
	Version  string               `json:"version"`
	Index    Index                `json:"index"`
	Paths    map[string]PathEntry `json:"paths"`
}

// Generate builds the manifest for entries. Entries are ordered by path and
// the common base stripped from every path is the first entry itself when it
// is a folder, the listed root, or the parent of the first path otherwise. Folders, entries without content and earlier manifests contribute
// nothing. When two paths map to the same relative path after spaces are
// replaced, the later one in path order wins.
func Generate(entries []Entry) (*Manifest, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.Path, b.Path)
	})

	prefix := basePrefix(sorted[0])
	paths := make(map[string]PathEntry, len(sorted))

	for _, e := range sorted {
		if e.Kind == arfs.KindFolder || e.ContentID.IsZero() || e.ContentType == ContentType {
			continue
		}

		rel := strings.TrimPrefix(e.Path, prefix)
		rel = strings.TrimLeft(rel, "/")
		rel = strings.ReplaceAll(rel, " ", "_")
		if rel == "" {
			continue
		}
		paths[rel] = PathEntry{ID: e.ContentID}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: none of %d entries has uploaded content", ErrNoEntries, len(entries))
	}

	return &Manifest{
		Manifest: Kind,
		Version:  Version,
		Index:    Index{Path: indexPath(paths)},
		Paths:    paths,
	}, nil
}

// RelativePaths returns the manifest paths in ascending order.
func (m *Manifest) RelativePaths() []string {
	keys := make([]string, 0, len(m.Paths))
	for k := range m.Paths {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Bytes returns the compact JSON document.
func (m *Manifest) Bytes() ([]byte, error) {
	return json.MarshalNoEscape(m)
}

// Size is the byte length of the JSON document.
func (m *Manifest) Size() (arfs.ByteCount, error) {
	data, err := m.Bytes()
	if err != nil {
		return 0, err
	}
	return arfs.ByteCount(len(data)), nil
}

// Parse decodes a manifest document and checks its format tag.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	if m.Manifest != Kind {
		return nil, fmt.Errorf("manifest: unexpected format %q", m.Manifest)
	}
	if m.Paths == nil {
		m.Paths = map[string]PathEntry{}
	}
	return &m, nil
}

func basePrefix(first Entry) string {
	base := path.Dir(first.Path)
	if first.Kind == arfs.KindFolder {
		base = path.Clean(first.Path)
	}
	switch base {
	case ".", "":
		return ""
	case "/":
		return "/"
	}
	return base + "/"
}

func indexPath(paths map[string]PathEntry) string {
	if _, ok := paths[IndexFile]; ok {
		return IndexFile
	}

	var first string
	for k := range paths {
		if first == "" || k < first {
			first = k
		}
	}
	return first
}
