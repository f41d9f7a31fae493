package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openmined/arfsync/internal/utils"
	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/localwrite"
)

var (
	ErrUnsafePath = errors.New("entity path escapes the destination")
)

// RemoteEntity is one entry of a listed remote folder tree.
type RemoteEntity struct {
	Kind arfs.EntityKind
	// Path is slash separated and relative to the destination root.
	Path string
	TxID arfs.TransactionID
	// LastModified is the remote modification time in milliseconds.
	LastModified int64
	Size         arfs.ByteCount
}

// ModTime is the remote modification time rounded up to whole seconds.
func (e RemoteEntity) ModTime() arfs.UnixTime {
	return arfs.UnixTimeFromMillis(e.LastModified)
}

// StreamWriter copies the content of a remote file to dest.
type StreamWriter interface {
	WriteFile(ctx context.Context, dest string, entity RemoteEntity) error
}

type StreamWriterFunc func(ctx context.Context, dest string, entity RemoteEntity) error

func (f StreamWriterFunc) WriteFile(ctx context.Context, dest string, entity RemoteEntity) error {
	return f(ctx, dest, entity)
}

// Result lists the destination paths touched by a download.
type Result struct {
	CreatedFolders []string
	WrittenFiles   []string
	Skipped        []string
	BytesWritten   arfs.ByteCount
}

type Driver struct {
	writer StreamWriter
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Driver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

func NewDriver(writer StreamWriter, opts ...Option) *Driver {
	d := &Driver{
		writer: writer,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadFolder writes entities beneath destRoot in order, which must list
// every folder before its children. Each entry is checked with the local
// write planner first. Written files get the remote modification time.
//
// The first failure stops the download. The returned result is valid up to
// that point.
func (d *Driver) DownloadFolder(ctx context.Context, destRoot string, entities []RemoteEntity, policy localwrite.Policy) (*Result, error) {
	res := &Result{}
	// folders left alone because a file occupies their path
	var blocked []string

	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		dest, err := destination(destRoot, entity.Path)
		if err != nil {
			return res, err
		}

		if underAny(dest, blocked) {
			res.Skipped = append(res.Skipped, dest)
			d.logger.Debug("download", "status", "Skipped", "path", dest, "reason", "parent skipped")
			continue
		}

		switch entity.Kind {
		case arfs.KindFolder:
			var created bool
			created, err = d.downloadFolder(dest, policy, res)
			if err == nil && !created && !utils.DirExists(dest) {
				blocked = append(blocked, dest)
			}
		case arfs.KindFile:
			err = d.downloadFile(ctx, dest, entity, policy, res)
		default:
			err = fmt.Errorf("%w: %s at %q", arfs.ErrUnsupportedEntityKind, entity.Kind, entity.Path)
		}
		if err != nil {
			return res, err
		}
	}

	d.logger.Info("download", "status", "Completed", "root", destRoot,
		"folders", len(res.CreatedFolders),
		"files", len(res.WrittenFiles),
		"skipped", len(res.Skipped),
		"size", humanize.Bytes(uint64(res.BytesWritten)),
	)
	return res, nil
}

func (d *Driver) downloadFolder(dest string, policy localwrite.Policy, res *Result) (bool, error) {
	ok, err := localwrite.MayWriteFolder(dest, policy)
	if err != nil {
		return false, err
	}
	if !ok {
		res.Skipped = append(res.Skipped, dest)
		return false, nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return false, fmt.Errorf("create folder %s: %w", dest, err)
	}
	res.CreatedFolders = append(res.CreatedFolders, dest)
	d.logger.Debug("download", "op", "create folder", "path", dest)
	return true, nil
}

func underAny(p string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (d *Driver) downloadFile(ctx context.Context, dest string, entity RemoteEntity, policy localwrite.Policy, res *Result) error {
	modTime := entity.ModTime()

	ok, err := localwrite.MayWriteFile(dest, modTime, policy)
	if err != nil {
		return err
	}
	if !ok {
		res.Skipped = append(res.Skipped, dest)
		d.logger.Debug("download", "op", "write file", "status", "Skipped", "path", dest, "policy", policy)
		return nil
	}

	if err := utils.EnsureParent(dest); err != nil {
		return fmt.Errorf("ensure parent of %s: %w", dest, err)
	}
	if err := d.writer.WriteFile(ctx, dest, entity); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Chtimes(dest, d.now(), modTime.Time()); err != nil {
		return fmt.Errorf("set modification time of %s: %w", dest, err)
	}

	res.WrittenFiles = append(res.WrittenFiles, dest)
	res.BytesWritten += entity.Size
	d.logger.Debug("download", "op", "write file", "status", "Completed", "path", dest, "size", humanize.Bytes(uint64(entity.Size)))
	return nil
}

func destination(root, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return filepath.Join(root, local), nil
}

// RelativizePaths rewrites full drive paths so they are relative to the
// parent of the first entity, the listed root folder. The root folder itself
// keeps its own name.
func RelativizePaths(entities []RemoteEntity) []RemoteEntity {
	if len(entities) == 0 {
		return nil
	}

	base := path.Dir(entities[0].Path)
	prefix := ""
	if base != "." && base != "/" {
		prefix = base
	}

	out := make([]RemoteEntity, len(entities))
	for i, e := range entities {
		rel := strings.TrimPrefix(e.Path, prefix)
		e.Path = strings.TrimLeft(rel, "/")
		out[i] = e
	}
	return out
}
