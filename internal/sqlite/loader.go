package sqlite

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// createSchema executes the table and index DDL.
func createSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return errors.Wrap(err, "create index")
		}
	}
	return nil
}

// loadSnapshots inserts snaps in one transaction: all succeed or the catalog
// stays empty.
func loadSnapshots(db *sql.DB, snaps []types.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin load")
	}
	defer tx.Rollback()

	for _, s := range snaps {
		s.SnapshotID = generateUUID()
		if err := upsertSnapshot(tx, s); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit load")
	}
	return nil
}

// upsertSnapshot replaces any row for (s.Kind, s.Tag) with s. The artifact
// rows of a replaced snapshot go with it.
func upsertSnapshot(tx *sql.Tx, s types.Snapshot) error {
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE kind = ? AND tag = ?`, s.Kind, s.Tag); err != nil {
		return errors.Wrapf(err, "replace %s/%s", s.Kind, s.Tag)
	}
	_, err := tx.Exec(
		`INSERT INTO snapshots (snapshot_id, kind, tag, format, parameters, hyper_parameters, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SnapshotID, s.Kind, s.Tag, s.Format, s.Parameters, s.HyperParameters,
		s.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "insert %s/%s", s.Kind, s.Tag)
	}
	for _, name := range s.Artifacts {
		if _, err := tx.Exec(`INSERT INTO snapshot_artifacts (snapshot_id, name) VALUES (?, ?)`, s.SnapshotID, name); err != nil {
			return errors.Wrapf(err, "insert artifact %s of %s/%s", name, s.Kind, s.Tag)
		}
	}
	return nil
}
