package arfs

import "errors"

var (
	// ErrSizeExceeded is returned when a local file is larger than the upload ceiling.
	ErrSizeExceeded = errors.New("file size exceeds limit")

	// ErrUnsupportedEntityKind is returned when a listed entity is neither a file nor a folder.
	ErrUnsupportedEntityKind = errors.New("unsupported entity kind")

	// ErrTypeConflict is returned when a write would replace a file with a directory or vice versa.
	ErrTypeConflict = errors.New("file/folder type conflict")

	// ErrMissingCost is returned when an upload op is consumed before costs were assigned.
	ErrMissingCost = errors.New("base costs were never set")

	ErrInvalidEntityID      = errors.New("invalid entity id")
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)
