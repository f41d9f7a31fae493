package arfs

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// EntityKind is the type tag of an entity in the remote store.
type EntityKind uint8

const (
	KindFile EntityKind = iota
	KindFolder
	KindDrive
)

var entityKindNames = []string{
	"file",
	"folder",
	"drive",
}

func (k EntityKind) String() string {
	if int(k) < len(entityKindNames) {
		return entityKindNames[k]
	}
	return fmt.Sprintf("EntityKind(%d)", k)
}

// ParseEntityKind maps the wire name of an entity type to its kind.
func ParseEntityKind(s string) (EntityKind, error) {
	for i, name := range entityKindNames {
		if name == s {
			return EntityKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEntityKind, s)
}

// EntityID identifies a drive, folder or file across all of its revisions.
type EntityID struct {
	uuid.UUID
}

func NewEntityID() EntityID {
	return EntityID{uuid.New()}
}

func ParseEntityID(s string) (EntityID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EntityID{}, fmt.Errorf("%w %q: %w", ErrInvalidEntityID, s, err)
	}
	return EntityID{id}, nil
}

// MustParseEntityID is ParseEntityID for literals. It panics on malformed input.
func MustParseEntityID(s string) EntityID {
	id, err := ParseEntityID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id EntityID) Equals(other EntityID) bool {
	return id.UUID == other.UUID
}

// TransactionID is the immutable content id of uploaded data.
type TransactionID string

var txIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{43}$`)

func ParseTransactionID(s string) (TransactionID, error) {
	if !txIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionID, s)
	}
	return TransactionID(s), nil
}

func (t TransactionID) String() string {
	return string(t)
}

func (t TransactionID) IsZero() bool {
	return t == ""
}

// UnixTime is a modification time with whole-second precision.
type UnixTime int64

func UnixTimeOf(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// UnixTimeFromMillis rounds a millisecond timestamp up to whole seconds.
func UnixTimeFromMillis(ms int64) UnixTime {
	sec := ms / 1000
	if ms%1000 > 0 {
		sec++
	}
	return UnixTime(sec)
}

func (u UnixTime) Time() time.Time {
	return time.Unix(int64(u), 0)
}

// ByteCount is a non-negative size in bytes.
type ByteCount int64
