// Package model defines the parameterized model entity: two schema-validated
// parameter sets, fit results and a lifecycle state, plus the interfaces
// concrete estimators implement.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/modelkit/pkg/types"
	"gonum.org/v1/gonum/mat"
)

// State is the lifecycle position of a Model.
type State string

// Model states. A model moves forward only; re-construction is the way back.
const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateFitted       State = "fitted"
)

// Model holds the parameters and hyper-parameters of one model instance.
// Concrete estimators embed or wrap a *Model and supply its schemas.
// Not safe for concurrent use.
type Model struct {
	kind    string
	params  *types.ParameterSet
	hyper   *types.ParameterSet
	results map[string]float64
}

// New returns an unconfigured model of the given kind. The kind is
// lowercased; it names the storage directory for saved snapshots.
func New(kind string, params, hyper types.Schema) *Model {
	return &Model{
		kind:   strings.ToLower(kind),
		params: types.NewParameterSet(types.SetParameters, params),
		hyper:  types.NewParameterSet(types.SetHyperParameters, hyper),
	}
}

// Kind returns the lowercased model kind.
func (m *Model) Kind() string { return m.kind }

// ParameterSet exposes the underlying parameter set.
func (m *Model) ParameterSet() *types.ParameterSet { return m.params }

// HyperParameterSet exposes the underlying hyper-parameter set.
func (m *Model) HyperParameterSet() *types.ParameterSet { return m.hyper }

// Parameters returns a copy of the parameter values.
func (m *Model) Parameters() map[string]any { return m.params.Values() }

// HyperParameters returns a copy of the hyper-parameter values.
func (m *Model) HyperParameters() map[string]any { return m.hyper.Values() }

// AddParameter validates and stores a parameter value.
func (m *Model) AddParameter(name string, value any) error {
	return m.params.Set(name, value)
}

// RemoveParameter removes and returns a parameter value.
func (m *Model) RemoveParameter(name string) (any, error) {
	return m.params.Remove(name)
}

// SetParameters replaces every parameter value. On failure no parameters
// remain set.
func (m *Model) SetParameters(assignments []types.Assignment) error {
	return m.params.ReplaceAll(assignments)
}

// EnsureParameters reports whether all required parameters are set,
// optionally filling them from defaults.
func (m *Model) EnsureParameters(useDefaults bool) bool {
	return m.params.EnsureComplete(useDefaults)
}

// AddHyperParameter validates and stores a hyper-parameter value.
func (m *Model) AddHyperParameter(name string, value any) error {
	return m.hyper.Set(name, value)
}

// RemoveHyperParameter removes and returns a hyper-parameter value.
func (m *Model) RemoveHyperParameter(name string) (any, error) {
	return m.hyper.Remove(name)
}

// SetHyperParameters replaces every hyper-parameter value. On failure no
// hyper-parameters remain set.
func (m *Model) SetHyperParameters(assignments []types.Assignment) error {
	return m.hyper.ReplaceAll(assignments)
}

// EnsureHyperParameters reports whether all required hyper-parameters are
// set, optionally filling them from defaults.
func (m *Model) EnsureHyperParameters(useDefaults bool) bool {
	return m.hyper.EnsureComplete(useDefaults)
}

// RequireConfigured completes both sets (using defaults when useDefaults is
// true) and returns ErrIncompleteConfiguration naming what is still missing.
func (m *Model) RequireConfigured(useDefaults bool) error {
	okParams := m.params.EnsureComplete(useDefaults)
	okHyper := m.hyper.EnsureComplete(useDefaults)
	if okParams && okHyper {
		return nil
	}
	var missing []string
	for _, name := range m.params.Missing() {
		missing = append(missing, types.SetParameters+"."+name)
	}
	for _, name := range m.hyper.Missing() {
		missing = append(missing, types.SetHyperParameters+"."+name)
	}
	return fmt.Errorf("%w: %s: missing %s", types.ErrIncompleteConfiguration, m.kind, strings.Join(missing, ", "))
}

// State reports the lifecycle state.
func (m *Model) State() State {
	switch {
	case m.results != nil:
		return StateFitted
	case m.params.Complete() && m.hyper.Complete():
		return StateConfigured
	default:
		return StateUnconfigured
	}
}

// Results returns a copy of the fit results, or nil before fitting.
func (m *Model) Results() map[string]float64 {
	if m.results == nil {
		return nil
	}
	out := make(map[string]float64, len(m.results))
	for k, v := range m.results {
		out[k] = v
	}
	return out
}

// RecordResults stores fit results. It is called once by the estimator's
// own fit logic; a second call returns ErrAlreadyFitted.
func (m *Model) RecordResults(results map[string]float64) error {
	if m.results != nil {
		return types.ErrAlreadyFitted
	}
	m.results = make(map[string]float64, len(results))
	for k, v := range results {
		m.results[k] = v
	}
	return nil
}

// Entity is anything backed by a *Model. Stores and the CLI work through it
// so that concrete estimators can be saved and loaded directly.
type Entity interface {
	Model() *Model
}

// Model returns m, so *Model satisfies Entity.
func (m *Model) Model() *Model { return m }

// Base is the name estimators embed. An embedded *Model field would be
// called Model and hide the promoted Model method; *Base keeps it visible.
type Base = Model

// Dataset is a feature matrix with an optional target vector.
type Dataset struct {
	Features []string
	X        *mat.Dense
	Y        []float64 // nil when the data has no target column
}

// Estimator is a model kind that can be built, fitted and used for
// prediction. Construct is called once all required values are present.
type Estimator interface {
	Entity
	Construct() error
	Fit(ctx context.Context, data Dataset) error
	Predict(ctx context.Context, x mat.Matrix) ([]float64, error)
}

// ArtifactProvider is implemented by entities that persist extra state
// (for example fitted weights) alongside their parameter sets.
type ArtifactProvider interface {
	Artifacts() (map[string][]byte, error)
}

// ArtifactRestorer receives the extra artifacts found on load.
type ArtifactRestorer interface {
	RestoreArtifacts(artifacts map[string][]byte) error
}
