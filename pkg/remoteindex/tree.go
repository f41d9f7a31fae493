package remoteindex

import (
	"context"
	"fmt"
	"path"

	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/download"
)

// Tree lists the folder rootID and everything beneath it as download
// entries, each folder ahead of its children. Paths start with the root
// folder's name. maxDepth limits how many levels below the root are listed;
// a negative value lists everything.
func (s *Store) Tree(ctx context.Context, rootID arfs.EntityID, maxDepth int) ([]download.RemoteEntity, error) {
	root, err := s.Get(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if root.Kind != arfs.KindFolder {
		return nil, fmt.Errorf("%w: %s is a %s, not a folder", arfs.ErrUnsupportedEntityKind, rootID, root.Kind)
	}

	out := []download.RemoteEntity{{Kind: arfs.KindFolder, Path: root.Name}}
	if err := s.appendTree(ctx, &out, root.ID, root.Name, 0, maxDepth); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) appendTree(ctx context.Context, out *[]download.RemoteEntity, folderID arfs.EntityID, prefix string, depth, maxDepth int) error {
	if maxDepth >= 0 && depth >= maxDepth {
		return nil
	}

	children, err := s.Children(ctx, folderID)
	if err != nil {
		return err
	}

	// files first so a folder's own content lands before its subfolders
	for _, c := range children {
		if c.Kind == arfs.KindFile {
			*out = append(*out, download.RemoteEntity{
				Kind:         arfs.KindFile,
				Path:         path.Join(prefix, c.Name),
				TxID:         c.TxID,
				LastModified: c.LastModified,
				Size:         c.Size,
			})
		}
	}
	for _, c := range children {
		if c.Kind != arfs.KindFolder {
			continue
		}
		p := path.Join(prefix, c.Name)
		*out = append(*out, download.RemoteEntity{Kind: arfs.KindFolder, Path: p})
		if err := s.appendTree(ctx, out, c.ID, p, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
