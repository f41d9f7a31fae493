package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openmined/arfsync/pkg/arfs"
)

// DataSource opens the content stored under a transaction id.
type DataSource interface {
	Open(ctx context.Context, txID arfs.TransactionID) (io.ReadCloser, error)
}

// FileWriter streams content from a DataSource into a temporary file next to
// the destination and renames it into place once the size is verified.
type FileWriter struct {
	Source DataSource
}

func NewFileWriter(source DataSource) *FileWriter {
	return &FileWriter{Source: source}
}

func (w *FileWriter) WriteFile(ctx context.Context, dest string, entity RemoteEntity) error {
	body, err := w.Source.Open(ctx, entity.TxID)
	if err != nil {
		return fmt.Errorf("open %s: %w", entity.TxID, err)
	}
	defer body.Close()

	tempFile, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".arfs.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	n, err := io.Copy(tempFile, body)
	if err != nil {
		return fmt.Errorf("copy %s: %w", entity.TxID, err)
	}
	if arfs.ByteCount(n) != entity.Size {
		return fmt.Errorf("size mismatch for %s: expected %d got %d", entity.TxID, entity.Size, n)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", dest, err)
	}

	success = true
	return nil
}
