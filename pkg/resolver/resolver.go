package resolver

import (
	"context"
	"log/slog"

	"github.com/openmined/arfsync/pkg/localtree"
	"golang.org/x/sync/errgroup"
)

// Resolver annotates a local tree with the decisions needed to mirror it onto
// an existing remote folder: which entries become revisions, which folders are
// reused and which names collide.
//
// A Resolver holds no state between calls. Every pass fetches fresh remote
// listings and fetch errors are returned exactly as the fetcher produced them.
type Resolver struct {
	fetcher NameFetcher
	logger  *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(fetcher NameFetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is a shorthand for New(fetcher).Resolve(ctx, folder).
func Resolve(ctx context.Context, folder *localtree.FolderNode, fetcher NameFetcher) error {
	return New(fetcher).Resolve(ctx, folder)
}

// Resolve walks folder in declaration order. Folders without an ExistingID
// have no remote counterpart and are left untouched along with everything
// beneath them.
func (r *Resolver) Resolve(ctx context.Context, folder *localtree.FolderNode) error {
	reused, err := r.resolveFolder(ctx, folder)
	if err != nil {
		return err
	}
	for _, child := range reused {
		if err := r.Resolve(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// ResolveConcurrent makes the same decisions as Resolve but resolves sibling
// subtrees on up to limit goroutines. Each folder node still sees exactly one
// fetch. The first error cancels the remaining work and is returned unchanged.
func (r *Resolver) ResolveConcurrent(ctx context.Context, folder *localtree.FolderNode, limit int) error {
	if limit <= 1 {
		return r.Resolve(ctx, folder)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var visit func(f *localtree.FolderNode) func() error
	visit = func(f *localtree.FolderNode) func() error {
		return func() error {
			reused, err := r.resolveFolder(gctx, f)
			if err != nil {
				return err
			}
			for _, child := range reused {
				task := visit(child)
				// run inline when the pool is saturated, otherwise a full
				// pool of parents waiting on slots would never drain
				if !g.TryGo(task) {
					if err := task(); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	g.Go(visit(folder))
	return g.Wait()
}

// resolveFolder applies the decisions for the direct children of folder and
// returns the child folders that were linked to an existing remote folder.
func (r *Resolver) resolveFolder(ctx context.Context, folder *localtree.FolderNode) ([]*localtree.FolderNode, error) {
	if folder.ExistingID == nil {
		return nil, nil
	}

	names, err := r.fetcher.FetchNames(ctx, *folder.ExistingID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = &RemoteNameIndex{}
	}

	for _, file := range folder.Files {
		r.resolveFile(file, names)
	}

	reused := make([]*localtree.FolderNode, 0, len(folder.Folders))
	for _, child := range folder.Folders {
		name := child.BaseName()

		if _, ok := names.File(name); ok {
			// a folder cannot be created where a file name already exists
			folder.CollidesWithFile = true
			r.logger.Debug("resolver", "decision", "file collision", "path", child.Path)
			continue
		}

		if existing, ok := names.Folder(name); ok {
			child.AssignExistingID(existing.ID)
			r.logger.Debug("resolver", "decision", "reuse folder", "path", child.Path, "id", existing.ID)
			reused = append(reused, child)
		}
	}

	return reused, nil
}

func (r *Resolver) resolveFile(file *localtree.FileNode, names *RemoteNameIndex) {
	name := file.BaseName()

	if _, ok := names.Folder(name); ok {
		file.CollidesWithFolder = true
		r.logger.Debug("resolver", "decision", "folder collision", "path", file.Path)
		return
	}

	existing, ok := names.File(name)
	if !ok {
		return
	}

	file.AssignExistingID(existing.ID)
	if existing.LastModified == file.LastModified {
		file.HasSameTimestamp = true
	}
	r.logger.Debug("resolver", "decision", "revision", "path", file.Path, "id", existing.ID, "sameTimestamp", file.HasSameTimestamp)
}
