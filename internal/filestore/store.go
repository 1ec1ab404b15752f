// Package filestore persists model parameter sets and model artifacts under
// <data-dir>/models/<kind>/<tag>/. Writes use the temp-file, fsync, rename
// pattern and are staged for every artifact before any is committed, so a
// save either replaces the whole snapshot or leaves it untouched.
package filestore

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/internal/codec"
	"github.com/mesh-intelligence/modelkit/pkg/model"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Layout names.
const (
	ModelsDirName       = "models"
	ParametersName      = "parameters"
	HyperParametersName = "hyper_parameters"

	tempPrefix = ".artifact-"
)

// Recorder is notified after every successful save. types.Catalog satisfies it.
type Recorder interface {
	Record(snap types.Snapshot) (string, error)
}

// Store reads and writes snapshots under one base directory.
type Store struct {
	baseDir  string
	codec    codec.Codec
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecorder registers a Recorder, typically the snapshot catalog.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides the time source for saved_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store for config. An empty DataDir means the current
// directory.
func New(config types.Config, opts ...Option) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c, err := codec.ByName(config.Format)
	if err != nil {
		return nil, err
	}
	base := config.DataDir
	if base == "" {
		base = "."
	}
	s := &Store{
		baseDir: base,
		codec:   c,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BaseDir returns the directory that holds models/.
func (s *Store) BaseDir() string { return s.baseDir }

// Format returns the configured artifact format.
func (s *Store) Format() string { return s.codec.Name() }

// Dir resolves <base>/models/<kind>/<tag>. Returns ErrInvalidTag if tag is
// empty, "." or "..", or contains a path separator.
func (s *Store) Dir(kind, tag string) (string, error) {
	if err := ValidateTag(tag); err != nil {
		return "", err
	}
	if err := ValidateTag(kind); err != nil {
		return "", errors.Wrapf(types.ErrUnknownKind, "kind %q", kind)
	}
	return filepath.Join(s.baseDir, ModelsDirName, kind, tag), nil
}

// ValidateTag checks that tag is usable as a single directory name.
func ValidateTag(tag string) error {
	if tag == "" || tag == "." || tag == ".." || strings.ContainsAny(tag, `/\`) || strings.HasPrefix(tag, tempPrefix) {
		return errors.Wrapf(types.ErrInvalidTag, "tag %q", tag)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}

// artifactNames returns the parameter artifact file names for c.
func artifactNames(c codec.Codec) (string, string) {
	return ParametersName + "." + c.Ext(), HyperParametersName + "." + c.Ext()
}

// isParameterArtifact reports whether name is a parameter artifact in any format.
func isParameterArtifact(name string) bool {
	base, ext, ok := strings.Cut(name, ".")
	if !ok || (base != ParametersName && base != HyperParametersName) {
		return false
	}
	_, known := codec.ByExt(ext)
	return known
}

// staged is one artifact written to a temp file, waiting for rename.
type staged struct {
	tmp    string
	target string
}

// Save writes both parameter sets of e, plus any model artifacts, under tag.
// If overwrite is false and any artifact of the snapshot already exists,
// Save returns ErrStorageConflict and writes nothing. When overwriting,
// files left over from the previous snapshot are removed. A Recorder failure
// is logged and does not fail the save; the catalog can be rebuilt from disk.
func (s *Store) Save(e model.Entity, tag string, overwrite bool) error {
	m := e.Model()
	dir, err := s.Dir(m.Kind(), tag)
	if err != nil {
		return err
	}

	savedAt := s.now().UTC()
	files, err := s.encodeSnapshot(e, savedAt)
	if err != nil {
		return err
	}

	if !overwrite {
		if err := s.checkConflicts(dir, files); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	var stage []staged
	cleanup := func() {
		for _, st := range stage {
			os.Remove(st.tmp)
		}
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tmp, err := writeTemp(dir, files[name])
		if err != nil {
			cleanup()
			return err
		}
		stage = append(stage, staged{tmp: tmp, target: filepath.Join(dir, name)})
	}

	for i, st := range stage {
		if err := os.Rename(st.tmp, st.target); err != nil {
			for _, rest := range stage[i:] {
				os.Remove(rest.tmp)
			}
			return errors.Wrapf(err, "commit %s", st.target)
		}
	}

	if overwrite {
		if err := removeStale(dir, files); err != nil {
			return err
		}
	}

	s.logger.Debug("saved snapshot", "kind", m.Kind(), "tag", tag, "format", s.codec.Name(), "dir", dir)

	if s.recorder != nil {
		snap := types.Snapshot{
			Kind:            m.Kind(),
			Tag:             tag,
			Format:          s.codec.Name(),
			Parameters:      m.ParameterSet().Len(),
			HyperParameters: m.HyperParameterSet().Len(),
			Artifacts:       extraNames(files),
			SavedAt:         savedAt,
		}
		if _, err := s.recorder.Record(snap); err != nil {
			s.logger.Warn("snapshot saved but not recorded", "kind", m.Kind(), "tag", tag, "error", err)
		}
	}
	return nil
}

// encodeSnapshot renders every file of the snapshot in memory.
func (s *Store) encodeSnapshot(e model.Entity, now time.Time) (map[string][]byte, error) {
	m := e.Model()
	paramsName, hyperName := artifactNames(s.codec)

	files := make(map[string][]byte)
	for name, ps := range map[string]*types.ParameterSet{
		paramsName: m.ParameterSet(),
		hyperName:  m.HyperParameterSet(),
	} {
		data, err := s.codec.Encode(codec.Envelope{
			Version: codec.Version,
			Kind:    m.Kind(),
			Set:     ps.Name(),
			SavedAt: now,
			Values:  ps.Values(),
		})
		if err != nil {
			return nil, err
		}
		files[name] = data
	}

	if ap, ok := e.(model.ArtifactProvider); ok {
		extra, err := ap.Artifacts()
		if err != nil {
			return nil, errors.Wrap(err, "collect model artifacts")
		}
		for name, data := range extra {
			if err := ValidateTag(name); err != nil || isParameterArtifact(name) || strings.HasPrefix(name, ".") {
				return nil, errors.Errorf("invalid artifact name %q", name)
			}
			files[name] = data
		}
	}
	return files, nil
}

// checkConflicts fails if any target file, or a parameter artifact in another
// format, already exists in dir.
func (s *Store) checkConflicts(dir string, files map[string][]byte) error {
	for name := range files {
		ok, err := Exists(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if ok {
			return errors.Wrapf(types.ErrStorageConflict, "%s exists", filepath.Join(dir, name))
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read %s", dir)
	}
	for _, ent := range entries {
		if isParameterArtifact(ent.Name()) {
			return errors.Wrapf(types.ErrStorageConflict, "%s exists", filepath.Join(dir, ent.Name()))
		}
	}
	return nil
}

// extraNames lists the model artifact names among files, sorted.
func extraNames(files map[string][]byte) []string {
	var names []string
	for name := range files {
		if !isParameterArtifact(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// removeStale deletes regular files in dir that are not part of keep.
func removeStale(dir string, keep map[string][]byte) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "read %s", dir)
	}
	for _, ent := range entries {
		if ent.IsDir() || strings.HasPrefix(ent.Name(), tempPrefix) {
			continue
		}
		if _, ok := keep[ent.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, ent.Name())); err != nil {
			return errors.Wrapf(err, "remove stale %s", ent.Name())
		}
	}
	return nil
}

// writeTemp writes data to a synced temp file in dir and returns its name.
func writeTemp(dir string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, tempPrefix+"*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "closing temp file")
	}
	return tmpName, nil
}
