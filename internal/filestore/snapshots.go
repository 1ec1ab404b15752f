package filestore

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Snapshots scans <base>/models and describes every complete snapshot.
// Tag directories missing a parameter artifact are skipped. Results are
// ordered by kind then tag. SnapshotID is left empty for the catalog to fill.
func (s *Store) Snapshots() ([]types.Snapshot, error) {
	root := filepath.Join(s.baseDir, ModelsDirName)
	kinds, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Snapshot{}, nil
		}
		return nil, errors.Wrapf(err, "read %s", root)
	}

	snaps := []types.Snapshot{}
	for _, k := range kinds {
		if !k.IsDir() {
			continue
		}
		tags, err := os.ReadDir(filepath.Join(root, k.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "read kind %s", k.Name())
		}
		for _, t := range tags {
			if !t.IsDir() || ValidateTag(t.Name()) != nil {
				continue
			}
			snap, ok, err := s.describe(k.Name(), t.Name())
			if err != nil {
				return nil, err
			}
			if !ok {
				s.logger.Debug("skipping incomplete snapshot", "kind", k.Name(), "tag", t.Name())
				continue
			}
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Kind != snaps[j].Kind {
			return snaps[i].Kind < snaps[j].Kind
		}
		return snaps[i].Tag < snaps[j].Tag
	})
	return snaps, nil
}

// describe reads the headers of one snapshot without a schema.
func (s *Store) describe(kind, tag string) (types.Snapshot, bool, error) {
	dir := filepath.Join(s.baseDir, ModelsDirName, kind, tag)
	c, err := s.detectFormat(dir)
	if err != nil {
		if errors.Is(err, types.ErrMissingModelData) {
			return types.Snapshot{}, false, nil
		}
		return types.Snapshot{}, false, err
	}
	paramsName, hyperName := artifactNames(c)

	counts := make([]int, 2)
	var snap types.Snapshot
	for i, name := range []string{paramsName, hyperName} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return types.Snapshot{}, false, errors.Wrapf(err, "read %s", name)
		}
		d, err := c.Decode(data)
		if err != nil {
			s.logger.Debug("skipping unreadable snapshot", "kind", kind, "tag", tag, "error", err)
			return types.Snapshot{}, false, nil
		}
		counts[i] = len(d.Values)
		if i == 0 {
			snap.SavedAt = d.SavedAt
		}
	}

	extra, err := readExtras(dir)
	if err != nil {
		return types.Snapshot{}, false, err
	}
	for name := range extra {
		snap.Artifacts = append(snap.Artifacts, name)
	}
	sort.Strings(snap.Artifacts)

	snap.Kind = kind
	snap.Tag = tag
	snap.Format = c.Name()
	snap.Parameters = counts[0]
	snap.HyperParameters = counts[1]
	return snap, true, nil
}
