// Package sqlite implements the snapshot catalog on SQLite. The artifact
// directory is the source of truth; the catalog database is dropped and
// rebuilt from it on every attach.
package sqlite

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// DBName is the catalog file created in the data directory.
const DBName = "catalog.db"

// Backend implements types.Catalog using SQLite as the query engine.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// NewBackend creates a new catalog backend.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens DataDir/catalog.db on a fresh schema and loads every snapshot
// reported by source. A nil source leaves the catalog empty.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config, source types.SnapshotSource) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dataDir)
	}

	dbPath := filepath.Join(dataDir, DBName)
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove stale %s", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return errors.Wrapf(err, "open %s", dbPath)
	}
	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	var snaps []types.Snapshot
	if source != nil {
		snaps, err = source.Snapshots()
		if err != nil {
			db.Close()
			return errors.Wrap(err, "scan snapshots")
		}
	}
	if err := loadSnapshots(db, snaps); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("catalog attached", "path", dbPath, "snapshots", len(snaps))
	return nil
}

// Record inserts or replaces the entry for (snap.Kind, snap.Tag). Every
// record gets a new snapshot ID.
func (b *Backend) Record(snap types.Snapshot) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrCatalogDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, "begin record")
	}
	defer tx.Rollback()

	snap.SnapshotID = generateUUID()
	if err := upsertSnapshot(tx, snap); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit record")
	}
	b.logger.Debug("catalog recorded", "kind", snap.Kind, "tag", snap.Tag, "snapshot_id", snap.SnapshotID)
	return snap.SnapshotID, nil
}

// List returns snapshots of kind ordered by kind then tag. An empty kind
// returns every snapshot.
func (b *Backend) List(kind string) ([]types.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}

	query := `SELECT snapshot_id, kind, tag, format, parameters, hyper_parameters, saved_at
FROM snapshots`
	var args []any
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY kind, tag"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	snaps := []types.Snapshot{}
	for rows.Next() {
		var s types.Snapshot
		var savedAt string
		if err := rows.Scan(&s.SnapshotID, &s.Kind, &s.Tag, &s.Format, &s.Parameters, &s.HyperParameters, &savedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan snapshot")
		}
		if s.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			rows.Close()
			return nil, errors.Wrapf(err, "parse saved_at of %s/%s", s.Kind, s.Tag)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(err, "iterate snapshots")
	}
	rows.Close()

	for i := range snaps {
		if snaps[i].Artifacts, err = b.artifacts(snaps[i].SnapshotID); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}

func (b *Backend) artifacts(id string) ([]string, error) {
	rows, err := b.db.Query(`SELECT name FROM snapshot_artifacts WHERE snapshot_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query artifacts")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan artifact")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrCatalogDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// generateUUID generates a new UUID v7 for snapshot IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
