// Package estimators holds the concrete model kinds: each declares its
// parameter schemas and implements Construct, Fit and Predict on top of
// model.Base.
package estimators

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/pkg/model"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Factory returns a new, unconfigured estimator.
type Factory func() model.Estimator

var registry = map[string]Factory{
	KindLinearRegression: func() model.Estimator { return NewLinearRegression() },
	KindBaseline:         func() model.Estimator { return NewBaseline() },
}

// Errors shared by the estimators.
var (
	ErrNoTarget      = errors.New("dataset has no target column")
	ErrShapeMismatch = errors.New("dataset shape mismatch")
	ErrEmptyDataset  = errors.New("dataset is empty")
)

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New returns a fresh estimator of kind. Matching is case-insensitive.
// Returns ErrUnknownKind for anything not registered.
func New(kind string) (model.Estimator, error) {
	f, ok := registry[strings.ToLower(kind)]
	if !ok {
		return nil, errors.Wrapf(types.ErrUnknownKind, "%q (known: %s)", kind, strings.Join(Kinds(), ", "))
	}
	return f(), nil
}

// FactoryFor returns the constructor for kind, for use with filestore.Load.
func FactoryFor(kind string) (Factory, error) {
	f, ok := registry[strings.ToLower(kind)]
	if !ok {
		return nil, errors.Wrapf(types.ErrUnknownKind, "%q", kind)
	}
	return f, nil
}

// checkTrainable validates the shape of a training set.
func checkTrainable(data model.Dataset) (rows, cols int, err error) {
	if data.X == nil {
		return 0, 0, ErrEmptyDataset
	}
	rows, cols = data.X.Dims()
	if rows == 0 {
		return 0, 0, ErrEmptyDataset
	}
	if data.Y == nil {
		return 0, 0, ErrNoTarget
	}
	if len(data.Y) != rows {
		return 0, 0, errors.Wrapf(ErrShapeMismatch, "%d rows but %d targets", rows, len(data.Y))
	}
	return rows, cols, nil
}
