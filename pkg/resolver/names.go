package resolver

import (
	"context"

	"github.com/openmined/arfsync/pkg/arfs"
)

// RemoteFile is a child file already present under a remote folder.
type RemoteFile struct {
	Name         string        `json:"name"`
	ID           arfs.EntityID `json:"id"`
	LastModified arfs.UnixTime `json:"lastModified"`
}

// RemoteFolder is a child folder already present under a remote folder.
type RemoteFolder struct {
	Name string        `json:"name"`
	ID   arfs.EntityID `json:"id"`
}

// RemoteNameIndex lists the names in use directly beneath one remote folder.
type RemoteNameIndex struct {
	Files   []RemoteFile   `json:"files"`
	Folders []RemoteFolder `json:"folders"`
}

// File returns the remote file named name. Names compare exactly.
func (idx *RemoteNameIndex) File(name string) (RemoteFile, bool) {
	for _, f := range idx.Files {
		if f.Name == name {
			return f, true
		}
	}
	return RemoteFile{}, false
}

// Folder returns the remote folder named name. Names compare exactly.
func (idx *RemoteNameIndex) Folder(name string) (RemoteFolder, bool) {
	for _, f := range idx.Folders {
		if f.Name == name {
			return f, true
		}
	}
	return RemoteFolder{}, false
}

// NameFetcher lists the children of a remote folder. Implementations usually
// query the remote entity index.
type NameFetcher interface {
	FetchNames(ctx context.Context, parentID arfs.EntityID) (*RemoteNameIndex, error)
}

// FetchNamesFunc adapts a plain function to NameFetcher.
type FetchNamesFunc func(ctx context.Context, parentID arfs.EntityID) (*RemoteNameIndex, error)

func (f FetchNamesFunc) FetchNames(ctx context.Context, parentID arfs.EntityID) (*RemoteNameIndex, error) {
	return f(ctx, parentID)
}
