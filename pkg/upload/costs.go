package upload

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/localtree"
)

// Winston is the smallest unit of the storage network's token.
type Winston int64

// BaseCosts is the network reward for the data and metadata transactions of
// one op, before tips.
type BaseCosts struct {
	FileData Winston
	MetaData Winston
}

func (c BaseCosts) Total() Winston {
	return c.FileData + c.MetaData
}

// Estimator prices a transaction carrying size bytes.
type Estimator interface {
	EstimateCost(ctx context.Context, size arfs.ByteCount) (Winston, error)
}

type EstimatorFunc func(ctx context.Context, size arfs.ByteCount) (Winston, error)

func (f EstimatorFunc) EstimateCost(ctx context.Context, size arfs.ByteCount) (Winston, error) {
	return f(ctx, size)
}

// stub content id used while sizing metadata, before the data tx exists
var stubTxID = strings.Repeat("0", 43)

type fileMetadata struct {
	Name             string         `json:"name"`
	Size             arfs.ByteCount `json:"size"`
	LastModifiedDate int64          `json:"lastModifiedDate"`
	DataTxID         string         `json:"dataTxId"`
	DataContentType  string         `json:"dataContentType"`
}

type folderMetadata struct {
	Name string `json:"name"`
}

// MetadataSize is the size of the metadata transaction body for op.
func MetadataSize(op *Op, encrypted bool) (arfs.ByteCount, error) {
	var v any
	if op.IsFolder() {
		v = folderMetadata{Name: op.Name()}
	} else {
		v = fileMetadata{
			Name:             op.Name(),
			Size:             op.File.Size,
			LastModifiedDate: int64(op.File.LastModified) * 1000,
			DataTxID:         stubTxID,
			DataContentType:  op.File.ContentType,
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	size := arfs.ByteCount(len(data))
	if encrypted {
		size = localtree.EncryptedDataSize(size)
	}
	return size, nil
}
