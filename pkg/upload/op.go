package upload

import (
	"fmt"

	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/localtree"
)

// OpKind is the action the upload driver takes for one local entry.
type OpKind uint8

const (
	OpCreateFolder OpKind = iota
	OpReuseFolder
	OpUploadFile
	OpRevision
	OpSkipUnchanged
	OpSkipCollision
	OpSkipExisting
)

var opKindNames = [...]string{
	OpCreateFolder:  "create folder",
	OpReuseFolder:   "reuse folder",
	OpUploadFile:    "upload file",
	OpRevision:      "revision",
	OpSkipUnchanged: "skip unchanged",
	OpSkipCollision: "skip collision",
	OpSkipExisting:  "skip existing",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Transacts reports whether the op results in a new remote transaction.
func (k OpKind) Transacts() bool {
	switch k {
	case OpCreateFolder, OpUploadFile, OpRevision:
		return true
	}
	return false
}

// Op is a planned action. Exactly one of File or Folder is set.
type Op struct {
	Kind   OpKind
	File   *localtree.FileNode
	Folder *localtree.FolderNode

	costs *BaseCosts
}

func (o *Op) IsFolder() bool {
	return o.Folder != nil
}

func (o *Op) Path() string {
	if o.Folder != nil {
		return o.Folder.Path
	}
	return o.File.Path
}

// Name is the remote name the entry is written under.
func (o *Op) Name() string {
	if o.Folder != nil {
		return o.Folder.RemoteName()
	}
	return o.File.BaseName()
}

// ExistingID is the remote entity the op writes a revision of or reuses.
func (o *Op) ExistingID() *arfs.EntityID {
	if o.Folder != nil {
		return o.Folder.ExistingID
	}
	return o.File.ExistingID
}

// DataSize is the number of content bytes the op uploads.
func (o *Op) DataSize(encrypted bool) arfs.ByteCount {
	if o.Folder != nil || !o.Kind.Transacts() {
		return 0
	}
	if encrypted {
		return o.File.EncryptedSize()
	}
	return o.File.Size
}

// BaseCosts returns the costs assigned by Plan.AssignCosts. Ops that do not
// transact cost nothing.
func (o *Op) BaseCosts() (BaseCosts, error) {
	if !o.Kind.Transacts() {
		return BaseCosts{}, nil
	}
	if o.costs == nil {
		return BaseCosts{}, fmt.Errorf("%w: %s %s", arfs.ErrMissingCost, o.Kind, o.Path())
	}
	return *o.costs, nil
}
