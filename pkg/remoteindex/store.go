package remoteindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/arfsync/internal/db"
	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/resolver"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	parent_id TEXT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	tx_id TEXT NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL DEFAULT 0,
	size INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(parent_id);
`

const (
	selectColumns = `SELECT id, parent_id, kind, name, tx_id, last_modified, size FROM entities`
	upsertEntity  = `INSERT OR REPLACE INTO entities (id, parent_id, kind, name, tx_id, last_modified, size) VALUES (?, ?, ?, ?, ?, ?, ?)`
)

var ErrNotFound = errors.New("entity not found")

// Store is a local snapshot of the remote entity index. It answers the name
// lookups conflict resolution needs and lists folder trees for download.
type Store struct {
	db *sqlx.DB
}

// Open creates the database described by opts and prepares the schema.
func Open(ctx context.Context, opts ...db.SqliteOption) (*Store, error) {
	conn, err := db.NewSqliteDB(opts...)
	if err != nil {
		return nil, err
	}

	store, err := New(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

// New uses an existing connection. The store owns it from here on.
func New(ctx context.Context, conn *sqlx.DB) (*Store, error) {
	if err := db.Migrate(ctx, conn, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put adds or replaces one entity.
func (s *Store) Put(ctx context.Context, e Entity) error {
	row := toRow(e)
	_, err := s.db.ExecContext(ctx, upsertEntity,
		row.ID, row.ParentID, row.Kind, row.Name, row.TxID, row.LastModified, row.Size,
	)
	return err
}

// PutMany adds or replaces entities in a single transaction.
func (s *Store) PutMany(ctx context.Context, entities []Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, upsertEntity)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		row := toRow(e)
		if _, err := stmt.ExecContext(ctx, row.ID, row.ParentID, row.Kind, row.Name, row.TxID, row.LastModified, row.Size); err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id arfs.EntityID) (*Entity, error) {
	var row entityRow
	err := s.db.GetContext(ctx, &row, selectColumns+` WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	e, err := row.entity()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Children lists the direct children of parent ordered by name.
func (s *Store) Children(ctx context.Context, parent arfs.EntityID) ([]Entity, error) {
	var rows []entityRow
	err := s.db.SelectContext(ctx, &rows, selectColumns+` WHERE parent_id = ? ORDER BY name, id`, parent.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", parent, err)
	}

	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		e, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FetchNames implements resolver.NameFetcher. Remote millisecond timestamps
// are rounded up to whole seconds.
func (s *Store) FetchNames(ctx context.Context, parent arfs.EntityID) (*resolver.RemoteNameIndex, error) {
	children, err := s.Children(ctx, parent)
	if err != nil {
		return nil, err
	}

	idx := &resolver.RemoteNameIndex{}
	for _, c := range children {
		switch c.Kind {
		case arfs.KindFile:
			idx.Files = append(idx.Files, resolver.RemoteFile{
				Name:         c.Name,
				ID:           c.ID,
				LastModified: arfs.UnixTimeFromMillis(c.LastModified),
			})
		case arfs.KindFolder:
			idx.Folders = append(idx.Folders, resolver.RemoteFolder{Name: c.Name, ID: c.ID})
		}
	}
	return idx, nil
}

func (s *Store) Remove(ctx context.Context, id arfs.EntityID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id.String())
	return err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM entities`); err != nil {
		return 0, err
	}
	return n, nil
}
