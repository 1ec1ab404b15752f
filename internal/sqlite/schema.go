package sqlite

// Catalog DDL. The database is rebuilt on every attach, so there are no
// migrations.
const (
	createSnapshots = `CREATE TABLE snapshots (
    snapshot_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    tag TEXT NOT NULL,
    format TEXT NOT NULL,
    parameters INTEGER NOT NULL,
    hyper_parameters INTEGER NOT NULL,
    saved_at TEXT NOT NULL
);`

	createSnapshotArtifacts = `CREATE TABLE snapshot_artifacts (
    snapshot_id TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, name),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(snapshot_id) ON DELETE CASCADE
);`
)

const (
	idxSnapshotsKindTag = `CREATE UNIQUE INDEX idx_snapshots_kind_tag ON snapshots(kind, tag);`
	idxArtifactsID      = `CREATE INDEX idx_snapshot_artifacts_id ON snapshot_artifacts(snapshot_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	"PRAGMA foreign_keys = ON;",
	createSnapshots,
	createSnapshotArtifacts,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxSnapshotsKindTag,
	idxArtifactsID,
}
