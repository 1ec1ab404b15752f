package types

import (
	"errors"
	"time"
)

// Snapshot describes one saved tag of one model kind.
type Snapshot struct {
	SnapshotID      string    // UUID v7, assigned by the catalog.
	Kind            string    // Lowercased model kind.
	Tag             string    // Caller-chosen tag.
	Format          string    // Artifact format (json or msgpack).
	Parameters      int       // Number of stored parameters.
	HyperParameters int       // Number of stored hyper-parameters.
	Artifacts       []string  // Extra model artifact names, sorted.
	SavedAt         time.Time // Time the snapshot was written.
}

// SnapshotSource enumerates the snapshots present in storage.
type SnapshotSource interface {
	Snapshots() ([]Snapshot, error)
}

// Catalog indexes saved snapshots. Storage stays the source of truth; a
// catalog can always be rebuilt from a SnapshotSource.
type Catalog interface {
	// Attach opens the catalog under config.DataDir and rebuilds it from
	// source. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config, source SnapshotSource) error

	// Record inserts or replaces the entry for (snap.Kind, snap.Tag) and
	// returns its snapshot ID.
	Record(snap Snapshot) (string, error)

	// List returns snapshots ordered by kind then tag. An empty kind
	// returns every snapshot.
	List(kind string) ([]Snapshot, error)

	// Detach releases resources. Idempotent.
	Detach() error
}

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
)
