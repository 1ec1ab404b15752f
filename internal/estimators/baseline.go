package estimators

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/modelkit/internal/ctxlog"
	"github.com/mesh-intelligence/modelkit/pkg/model"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// KindBaseline is the storage kind of Baseline.
const KindBaseline = "baseline"

// Baseline strategies.
const (
	StrategyMean     = "mean"
	StrategyQuantile = "quantile"
)

const constantArtifact = "constant.bin"

var (
	baselineParams = types.MustSchema(
		types.ParameterSpec{
			Name: "strategy", Type: types.ValueTypeText, Required: true, Default: StrategyMean,
			Description: "mean or quantile",
		},
	)
	baselineHyper = types.MustSchema(
		types.ParameterSpec{
			Name: "quantile", Type: types.ValueTypeFloat, Required: true, Default: 0.5,
			Bounds:      &types.Bounds{Min: 0.0, Max: 1.0},
			Description: "target quantile for the quantile strategy",
		},
	)
)

// Baseline predicts one constant learned from the target column.
type Baseline struct {
	*model.Base

	strategy string
	quantile float64
	constant *float64
}

// NewBaseline returns an unconfigured baseline.
func NewBaseline() *Baseline {
	return &Baseline{Base: model.New("Baseline", baselineParams, baselineHyper)}
}

// Construct fills defaults and checks the strategy name.
func (b *Baseline) Construct() error {
	if err := b.RequireConfigured(true); err != nil {
		return err
	}
	b.strategy, _ = b.ParameterSet().Text("strategy")
	b.quantile, _ = b.HyperParameterSet().Float("quantile")
	switch b.strategy {
	case StrategyMean, StrategyQuantile:
		return nil
	}
	return errors.Wrapf(types.ErrInvalidParameter, "%s: strategy %q is not %s or %s",
		types.SetParameters, b.strategy, StrategyMean, StrategyQuantile)
}

// Fit computes the constant and records it with the training mse.
func (b *Baseline) Fit(ctx context.Context, data model.Dataset) error {
	if b.State() == model.StateFitted {
		return types.ErrAlreadyFitted
	}
	if err := b.Construct(); err != nil {
		return err
	}
	if _, _, err := checkTrainable(data); err != nil {
		return err
	}

	var c float64
	switch b.strategy {
	case StrategyQuantile:
		sorted := append([]float64(nil), data.Y...)
		sort.Float64s(sorted)
		c = stat.Quantile(b.quantile, stat.Empirical, sorted, nil)
	default:
		c = stat.Mean(data.Y, nil)
	}

	pred := make([]float64, len(data.Y))
	for i := range pred {
		pred[i] = c
	}
	mse := meanSquaredError(pred, data.Y)
	if err := b.RecordResults(map[string]float64{"constant": c, "mse": mse}); err != nil {
		return err
	}
	b.constant = &c
	ctxlog.FromContext(ctx).Debug("baseline fitted", "strategy", b.strategy, "constant", c, "mse", mse)
	return nil
}

// Predict returns the learned constant for every row of x.
func (b *Baseline) Predict(ctx context.Context, x mat.Matrix) ([]float64, error) {
	if b.constant == nil {
		return nil, types.ErrNotFitted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = *b.constant
	}
	return out, nil
}

// Artifacts stores the constant as a one-element gonum vector.
func (b *Baseline) Artifacts() (map[string][]byte, error) {
	if b.constant == nil {
		return nil, nil
	}
	data, err := mat.NewVecDense(1, []float64{*b.constant}).MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encode constant")
	}
	return map[string][]byte{constantArtifact: data}, nil
}

// RestoreArtifacts reloads the constant written by Artifacts.
func (b *Baseline) RestoreArtifacts(artifacts map[string][]byte) error {
	data, ok := artifacts[constantArtifact]
	if !ok {
		b.constant = nil
		return nil
	}
	var v mat.VecDense
	if err := v.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "decode constant")
	}
	if v.Len() != 1 {
		return errors.Errorf("constant artifact holds %d values", v.Len())
	}
	c := v.AtVec(0)
	b.constant = &c
	return nil
}
