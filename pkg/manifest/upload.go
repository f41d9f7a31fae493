package manifest

import (
	"time"

	"github.com/openmined/arfsync/pkg/arfs"
)

const DefaultName = "DriveManifest.json"

// Upload is a generated manifest ready to be handed to the upload driver as
// a regular file entity. The document is encoded once so size and bytes
// always agree.
type Upload struct {
	Manifest     *Manifest
	DestName     string
	LastModified arfs.UnixTime

	data []byte
}

func NewUpload(entries []Entry, destName string) (*Upload, error) {
	m, err := Generate(entries)
	if err != nil {
		return nil, err
	}

	data, err := m.Bytes()
	if err != nil {
		return nil, err
	}

	if destName == "" {
		destName = DefaultName
	}

	return &Upload{
		Manifest:     m,
		DestName:     destName,
		LastModified: arfs.UnixTimeOf(time.Now()),
		data:         data,
	}, nil
}

func (u *Upload) BaseName() string {
	return u.DestName
}

func (u *Upload) ContentType() string {
	return ContentType
}

func (u *Upload) Size() arfs.ByteCount {
	return arfs.ByteCount(len(u.data))
}

// Bytes returns the encoded document. Callers must not modify it.
func (u *Upload) Bytes() []byte {
	return u.data
}

func (u *Upload) Links(gateway string, manifestID arfs.TransactionID) []string {
	return u.Manifest.Links(gateway, manifestID)
}
