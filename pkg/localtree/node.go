package localtree

import (
	"io"
	"os"
	"path/filepath"

	"github.com/openmined/arfsync/pkg/arfs"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Node is either a file or a folder of the local tree. Exactly one of File or
// Folder is set, matching Kind.
type Node struct {
	Kind   Kind
	File   *FileNode
	Folder *FolderNode
}

func FileNodeOf(f *FileNode) Node {
	return Node{Kind: KindFile, File: f}
}

func FolderNodeOf(f *FolderNode) Node {
	return Node{Kind: KindFolder, Folder: f}
}

func (n Node) IsFolder() bool {
	return n.Kind == KindFolder
}

func (n Node) Path() string {
	switch n.Kind {
	case KindFolder:
		return n.Folder.Path
	default:
		return n.File.Path
	}
}

func (n Node) BaseName() string {
	return filepath.Base(n.Path())
}

// FileNode mirrors a single local file.
type FileNode struct {
	Path         string
	Size         arfs.ByteCount
	ContentType  string
	LastModified arfs.UnixTime

	// ExistingID is the remote file this node will be uploaded as a revision of.
	ExistingID *arfs.EntityID
	// HasSameTimestamp is set when the remote revision has the same modification time.
	HasSameTimestamp bool
	// CollidesWithFolder is set when a remote folder already uses this file's name.
	CollidesWithFolder bool
}

func (f *FileNode) BaseName() string {
	return filepath.Base(f.Path)
}

// AssignExistingID links the node to a remote file. An id that was already
// assigned is never replaced; the return value reports whether id is now set.
func (f *FileNode) AssignExistingID(id arfs.EntityID) bool {
	if f.ExistingID != nil {
		return f.ExistingID.Equals(id)
	}
	f.ExistingID = &id
	return true
}

// EncryptedSize is the size of the file data once sealed with AES-256-GCM.
func (f *FileNode) EncryptedSize() arfs.ByteCount {
	return EncryptedDataSize(f.Size)
}

// Open returns a reader over the raw file bytes. The caller closes it.
func (f *FileNode) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f *FileNode) ReadAll() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// FolderNode mirrors a local directory and all of its children.
type FolderNode struct {
	Path string

	// DestinationName overrides the remote name of this folder when set.
	DestinationName string
	// ExistingID is the remote folder this node maps onto.
	ExistingID *arfs.EntityID
	// CollidesWithFile is set when a remote file uses the name of one of this folder's child folders.
	CollidesWithFile bool

	Files   []*FileNode
	Folders []*FolderNode
}

func (f *FolderNode) BaseName() string {
	return filepath.Base(f.Path)
}

// RemoteName is the name the folder takes in the remote store.
func (f *FolderNode) RemoteName() string {
	if f.DestinationName != "" {
		return f.DestinationName
	}
	return f.BaseName()
}

// AssignExistingID links the folder to a remote folder, following the same
// rules as FileNode.AssignExistingID.
func (f *FolderNode) AssignExistingID(id arfs.EntityID) bool {
	if f.ExistingID != nil {
		return f.ExistingID.Equals(id)
	}
	f.ExistingID = &id
	return true
}

// TotalByteCount sums the sizes of all files beneath the folder. With
// encrypted set, each file is counted at its sealed size.
func (f *FolderNode) TotalByteCount(encrypted bool) arfs.ByteCount {
	var total arfs.ByteCount
	for _, file := range f.Files {
		if encrypted {
			total += file.EncryptedSize()
		} else {
			total += file.Size
		}
	}
	for _, folder := range f.Folders {
		total += folder.TotalByteCount(encrypted)
	}
	return total
}

// FileCount returns the number of files beneath the folder.
func (f *FolderNode) FileCount() int {
	n := len(f.Files)
	for _, folder := range f.Folders {
		n += folder.FileCount()
	}
	return n
}

// FolderCount returns the number of folders beneath the folder, excluding itself.
func (f *FolderNode) FolderCount() int {
	n := len(f.Folders)
	for _, folder := range f.Folders {
		n += folder.FolderCount()
	}
	return n
}

// Walk visits the folder, then its files, then each child folder depth first.
// Returning an error from fn stops the walk with that error.
func (f *FolderNode) Walk(fn func(Node) error) error {
	if err := fn(FolderNodeOf(f)); err != nil {
		return err
	}
	for _, file := range f.Files {
		if err := fn(FileNodeOf(file)); err != nil {
			return err
		}
	}
	for _, folder := range f.Folders {
		if err := folder.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// EncryptedDataSize computes the sealed size of size bytes of plaintext:
// floor(size/16)+1 blocks of 16 bytes.
func EncryptedDataSize(size arfs.ByteCount) arfs.ByteCount {
	return (size/16 + 1) * 16
}
