package resolver

import "github.com/openmined/arfsync/pkg/localtree"

// Summary counts the outcomes recorded on a resolved tree.
type Summary struct {
	NewFiles         int
	Revisions        int
	SameTimestamp    int
	FolderCollisions int // files whose name is taken by a remote folder
	NewFolders       int
	ReusedFolders    int
	FileCollisions   int // folders with a child folder whose name is taken by a remote file
}

// HasCollisions reports whether any entry could not be resolved normally.
func (s Summary) HasCollisions() bool {
	return s.FolderCollisions > 0 || s.FileCollisions > 0
}

// Summarize tallies the decisions beneath root, excluding root itself.
func Summarize(root *localtree.FolderNode) Summary {
	var s Summary
	s.addFolder(root)
	return s
}

func (s *Summary) addFolder(folder *localtree.FolderNode) {
	if folder.CollidesWithFile {
		s.FileCollisions++
	}

	for _, f := range folder.Files {
		switch {
		case f.CollidesWithFolder:
			s.FolderCollisions++
		case f.ExistingID != nil:
			s.Revisions++
			if f.HasSameTimestamp {
				s.SameTimestamp++
			}
		default:
			s.NewFiles++
		}
	}

	for _, child := range folder.Folders {
		if child.ExistingID != nil {
			s.ReusedFolders++
		} else {
			s.NewFolders++
		}
		s.addFolder(child)
	}
}
