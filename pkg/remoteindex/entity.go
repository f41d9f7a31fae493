package remoteindex

import (
	"database/sql"

	"github.com/openmined/arfsync/pkg/arfs"
)

// Entity is the latest revision of a remote drive, folder or file.
type Entity struct {
	ID       arfs.EntityID
	ParentID *arfs.EntityID
	Kind     arfs.EntityKind
	Name     string
	TxID     arfs.TransactionID
	// LastModified is in milliseconds, as stored remotely.
	LastModified int64
	Size         arfs.ByteCount
}

type entityRow struct {
	ID           string         `db:"id"`
	ParentID     sql.NullString `db:"parent_id"`
	Kind         string         `db:"kind"`
	Name         string         `db:"name"`
	TxID         string         `db:"tx_id"`
	LastModified int64          `db:"last_modified"`
	Size         int64          `db:"size"`
}

func toRow(e Entity) entityRow {
	row := entityRow{
		ID:           e.ID.String(),
		Kind:         e.Kind.String(),
		Name:         e.Name,
		TxID:         e.TxID.String(),
		LastModified: e.LastModified,
		Size:         int64(e.Size),
	}
	if e.ParentID != nil {
		row.ParentID = sql.NullString{String: e.ParentID.String(), Valid: true}
	}
	return row
}

func (r entityRow) entity() (Entity, error) {
	id, err := arfs.ParseEntityID(r.ID)
	if err != nil {
		return Entity{}, err
	}
	kind, err := arfs.ParseEntityKind(r.Kind)
	if err != nil {
		return Entity{}, err
	}

	e := Entity{
		ID:           id,
		Kind:         kind,
		Name:         r.Name,
		TxID:         arfs.TransactionID(r.TxID),
		LastModified: r.LastModified,
		Size:         arfs.ByteCount(r.Size),
	}
	if r.ParentID.Valid {
		parent, err := arfs.ParseEntityID(r.ParentID.String)
		if err != nil {
			return Entity{}, err
		}
		e.ParentID = &parent
	}
	return e, nil
}
