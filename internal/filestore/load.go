package filestore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/internal/codec"
	"github.com/mesh-intelligence/modelkit/pkg/model"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Load builds a fresh entity with newEntity and fills it from the snapshot
// saved under tag. See LoadInto for the failure modes.
func Load[E model.Entity](s *Store, tag string, newEntity func() E) (E, error) {
	e := newEntity()
	if err := s.LoadInto(e, tag); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}

// LoadInto replaces the parameter values of e with the snapshot saved under
// tag. The schema comes from e, never from storage. Returns
// ErrMissingModelData if either parameter artifact is absent, if the stored
// kind or set does not match, or if a stored name, type or bound does not
// fit the current schema. Fit results are never restored. On any failure,
// including an ArtifactRestorer error, e keeps its previous values.
func (s *Store) LoadInto(e model.Entity, tag string) error {
	m := e.Model()
	dir, err := s.Dir(m.Kind(), tag)
	if err != nil {
		return err
	}

	c, err := s.detectFormat(dir)
	if err != nil {
		return errors.Wrapf(err, "%s/%s", m.Kind(), tag)
	}
	paramsName, hyperName := artifactNames(c)

	params, err := readSet(c, filepath.Join(dir, paramsName), m.Kind(), m.ParameterSet())
	if err != nil {
		return err
	}
	hyper, err := readSet(c, filepath.Join(dir, hyperName), m.Kind(), m.HyperParameterSet())
	if err != nil {
		return err
	}

	var extra map[string][]byte
	if _, ok := e.(model.ArtifactRestorer); ok {
		extra, err = readExtras(dir)
		if err != nil {
			return err
		}
	}

	// Validate against scratch sets first so e is untouched on failure.
	for _, pair := range []struct {
		ps     *types.ParameterSet
		values []types.Assignment
	}{{m.ParameterSet(), params}, {m.HyperParameterSet(), hyper}} {
		scratch := types.NewParameterSet(pair.ps.Name(), pair.ps.Schema())
		if err := scratch.ReplaceAll(pair.values); err != nil {
			return errors.Wrapf(types.ErrMissingModelData, "%s/%s: %v", m.Kind(), tag, err)
		}
	}
	prevParams := types.Assignments(m.ParameterSet().Values())
	prevHyper := types.Assignments(m.HyperParameterSet().Values())
	if err := m.ParameterSet().ReplaceAll(params); err != nil {
		return err
	}
	if err := m.HyperParameterSet().ReplaceAll(hyper); err != nil {
		_ = m.ParameterSet().ReplaceAll(prevParams)
		return err
	}
	if r, ok := e.(model.ArtifactRestorer); ok {
		if err := r.RestoreArtifacts(extra); err != nil {
			// The previous values were valid under the same schema, so the
			// rollback cannot fail.
			_ = m.ParameterSet().ReplaceAll(prevParams)
			_ = m.HyperParameterSet().ReplaceAll(prevHyper)
			return errors.Wrapf(err, "restore artifacts for %s/%s", m.Kind(), tag)
		}
	}

	s.logger.Debug("loaded snapshot", "kind", m.Kind(), "tag", tag, "format", c.Name(),
		"parameters", len(params), "hyper_parameters", len(hyper), "artifacts", len(extra))
	return nil
}

// detectFormat returns the codec whose two parameter artifacts both exist in
// dir, preferring the configured one.
func (s *Store) detectFormat(dir string) (codec.Codec, error) {
	candidates := []codec.Codec{s.codec}
	for _, name := range []string{types.FormatJSON, types.FormatMsgpack} {
		if c, err := codec.ByName(name); err == nil && c.Name() != s.codec.Name() {
			candidates = append(candidates, c)
		}
	}
	for _, c := range candidates {
		paramsName, hyperName := artifactNames(c)
		okP, err := Exists(filepath.Join(dir, paramsName))
		if err != nil {
			return nil, err
		}
		okH, err := Exists(filepath.Join(dir, hyperName))
		if err != nil {
			return nil, err
		}
		if okP && okH {
			return c, nil
		}
	}
	return nil, types.ErrMissingModelData
}

// readSet decodes one artifact and types its values with ps's schema.
func readSet(c codec.Codec, path, kind string, ps *types.ParameterSet) ([]types.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(types.ErrMissingModelData, "%s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	d, err := c.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(types.ErrMissingModelData, "%s: %v", path, err)
	}
	if d.Kind != kind || d.Set != ps.Name() {
		return nil, errors.Wrapf(types.ErrMissingModelData, "%s holds %s/%s, want %s/%s", path, d.Kind, d.Set, kind, ps.Name())
	}

	schema := ps.Schema()
	out := make([]types.Assignment, 0, len(d.Values))
	for name, raw := range d.Values {
		spec, ok := schema.Lookup(name)
		if !ok {
			return nil, errors.Wrapf(types.ErrMissingModelData, "%s: stored name %q is not in the %s schema", path, name, ps.Name())
		}
		v, err := spec.Type.Decode(raw)
		if err != nil {
			return nil, errors.Wrapf(types.ErrMissingModelData, "%s: %s is not %s: %v", path, name, spec.Type, err)
		}
		out = append(out, types.Assignment{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// readExtras reads every model artifact in dir.
func readExtras(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	extra := make(map[string][]byte)
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || isParameterArtifact(name) || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read artifact %s", name)
		}
		extra[name] = data
	}
	return extra, nil
}
