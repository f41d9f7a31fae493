package localtree

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/openmined/arfsync/pkg/arfs"
)

// macOS Finder metadata. Matched by exact name only.
const dsStoreFile = ".DS_Store"

// Limits are the hard ceilings on a single file's size.
type Limits struct {
	// MaxFileSize applies to public uploads.
	MaxFileSize arfs.ByteCount
	// MaxEncryptedFileSize applies to private uploads. It is one byte lower to
	// leave room for block padding.
	MaxEncryptedFileSize arfs.ByteCount
}

func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:          2_147_483_647,
		MaxEncryptedFileSize: 2_147_483_646,
	}
}

// Builder turns a local path into a FileNode/FolderNode tree. Its
// configuration is fixed at construction and it may be shared between
// goroutines.
type Builder struct {
	limits    Limits
	encrypted bool
	mime      *MimeTable
	excluded  mapset.Set[string]
	logger    *slog.Logger
}

type Option func(*Builder)

// WithEncryption selects the ceiling for content that will be encrypted.
func WithEncryption(encrypted bool) Option {
	return func(b *Builder) {
		b.encrypted = encrypted
	}
}

func WithLimits(limits Limits) Option {
	return func(b *Builder) {
		b.limits = limits
	}
}

func WithMimeTable(table *MimeTable) Option {
	return func(b *Builder) {
		b.mime = table
	}
}

// WithExcludedNames adds file names, matched exactly, that are never included
// in a folder's children. .DS_Store is always excluded.
func WithExcludedNames(names ...string) Option {
	return func(b *Builder) {
		b.excluded.Append(names...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		limits:   DefaultLimits(),
		mime:     defaultMimeTable,
		excluded: mapset.NewSet(dsStoreFile),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MaxFileSize is the ceiling in effect for this builder.
func (b *Builder) MaxFileSize() arfs.ByteCount {
	if b.encrypted {
		return b.limits.MaxEncryptedFileSize
	}
	return b.limits.MaxFileSize
}

// Build stats path and returns a folder node for a directory and a file node
// for anything else.
func (b *Builder) Build(path string) (Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Node{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		folder, err := b.buildFolder(path)
		if err != nil {
			return Node{}, err
		}
		return FolderNodeOf(folder), nil
	}

	file, err := b.newFileNode(path, info)
	if err != nil {
		return Node{}, err
	}
	return FileNodeOf(file), nil
}

// BuildFolder is Build for a path that must be a directory.
func (b *Builder) BuildFolder(path string) (*FolderNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return b.buildFolder(path)
}

// BuildFile is Build for a path that must not be a directory.
func (b *Builder) BuildFile(path string) (*FileNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return b.newFileNode(path, info)
}

func (b *Builder) buildFolder(path string) (*FolderNode, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	folder := &FolderNode{
		Path:    path,
		Files:   make([]*FileNode, 0, len(entries)),
		Folders: make([]*FolderNode, 0),
	}

	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())

		// follow symlinks so a linked directory is mirrored as a directory
		info, err := os.Stat(childPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", childPath, err)
		}

		if info.IsDir() {
			child, err := b.buildFolder(childPath)
			if err != nil {
				return nil, err
			}
			folder.Folders = append(folder.Folders, child)
			continue
		}

		if b.excluded.Contains(entry.Name()) {
			b.logger.Debug("localtree excluded", "path", childPath)
			continue
		}

		file, err := b.newFileNode(childPath, info)
		if err != nil {
			return nil, err
		}
		folder.Files = append(folder.Files, file)
	}

	return folder, nil
}

func (b *Builder) newFileNode(path string, info os.FileInfo) (*FileNode, error) {
	size := arfs.ByteCount(info.Size())
	if limit := b.MaxFileSize(); size > limit {
		return nil, fmt.Errorf("%w: %s is %s, limit is %s", arfs.ErrSizeExceeded, path,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))
	}

	return &FileNode{
		Path:         path,
		Size:         size,
		ContentType:  b.mime.ContentType(info.Name()),
		LastModified: arfs.UnixTimeOf(info.ModTime()),
	}, nil
}
