package localwrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/openmined/arfsync/pkg/arfs"
)

// MayWriteFile reports whether a remote file with the given modification time
// may be written to dest.
//
//	dest absent                 -> true
//	dest is a directory         -> ErrTypeConflict under replace/upsert, false under skip
//	same modification time      -> true only under replace
//	different modification time -> true under replace/upsert
//
// Local modification times are compared at whole-second precision.
func MayWriteFile(dest string, remoteModTime arfs.UnixTime, policy Policy) (bool, error) {
	info, exists, err := stat(dest)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	if info.IsDir() {
		if policy.overwrites() {
			return false, fmt.Errorf("%w: cannot override the directory %q with a file", arfs.ErrTypeConflict, dest)
		}
		return false, nil
	}

	if arfs.UnixTimeOf(info.ModTime()) == remoteModTime {
		return policy == Replace, nil
	}
	return policy.overwrites(), nil
}

// MayWriteFolder reports whether a folder must be created at dest. An
// existing directory needs no write.
func MayWriteFolder(dest string, policy Policy) (bool, error) {
	info, exists, err := stat(dest)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	if info.IsDir() {
		return false, nil
	}
	if policy.overwrites() {
		return false, fmt.Errorf("%w: cannot override the file %q with a folder", arfs.ErrTypeConflict, dest)
	}
	return false, nil
}

// stat treats a path below a regular file as absent.
func stat(path string) (fs.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}
