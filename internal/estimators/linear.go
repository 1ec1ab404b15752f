package estimators

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/modelkit/internal/ctxlog"
	"github.com/mesh-intelligence/modelkit/pkg/model"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// KindLinearRegression is the storage kind of LinearRegression.
const KindLinearRegression = "linearregression"

const weightsArtifact = "weights.bin"

// ErrDiverged is returned when gradient descent produces non-finite weights.
var ErrDiverged = errors.New("gradient descent diverged")

var (
	linearParams = types.MustSchema(
		types.ParameterSpec{
			Name: "fit_intercept", Type: types.ValueTypeBoolean, Required: true, Default: true,
			Description: "learn a bias term",
		},
		types.ParameterSpec{
			Name: "l2", Type: types.ValueTypeFloat, Required: true, Default: 0.0,
			Bounds:      &types.Bounds{Min: 0.0},
			Description: "ridge penalty on the coefficients",
		},
	)
	linearHyper = types.MustSchema(
		types.ParameterSpec{
			Name: "learning_rate", Type: types.ValueTypeFloat, Required: true, Default: 0.01,
			Bounds:      &types.Bounds{Min: 0.0, Max: 1.0},
			Description: "gradient descent step size",
		},
		types.ParameterSpec{
			Name: "epochs", Type: types.ValueTypeInteger, Required: true, Default: 1000,
			Bounds:      &types.Bounds{Min: 1},
			Description: "maximum full-batch passes",
		},
		types.ParameterSpec{
			Name: "tolerance", Type: types.ValueTypeFloat,
			Bounds:      &types.Bounds{Min: 0.0},
			Description: "stop once the largest gradient component falls below this",
		},
	)
)

// LinearRegression is ordinary least squares, optionally ridge-penalised,
// fitted by full-batch gradient descent.
type LinearRegression struct {
	*model.Base

	fitIntercept bool
	l2           float64
	learningRate float64
	epochs       int
	tolerance    float64

	// weights holds one coefficient per feature, then the intercept when
	// fitIntercept is set. nil until fitted or restored.
	weights *mat.VecDense
}

// NewLinearRegression returns an unconfigured linear regression.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{Base: model.New("LinearRegression", linearParams, linearHyper)}
}

// Construct fills defaults and reads the typed configuration. It returns
// ErrIncompleteConfiguration if a required value has no default.
func (lr *LinearRegression) Construct() error {
	if err := lr.RequireConfigured(true); err != nil {
		return err
	}
	params, hyper := lr.ParameterSet(), lr.HyperParameterSet()
	lr.fitIntercept, _ = params.Bool("fit_intercept")
	lr.l2, _ = params.Float("l2")
	lr.learningRate, _ = hyper.Float("learning_rate")
	epochs, _ := hyper.Int("epochs")
	lr.epochs = int(epochs)
	lr.tolerance, _ = hyper.Float("tolerance")
	return nil
}

// Fit learns the weights from data and records mse, r2 and epochs.
// Cancelling ctx stops between epochs.
func (lr *LinearRegression) Fit(ctx context.Context, data model.Dataset) error {
	if lr.State() == model.StateFitted {
		return types.ErrAlreadyFitted
	}
	if err := lr.Construct(); err != nil {
		return err
	}
	rows, cols, err := checkTrainable(data)
	if err != nil {
		return err
	}

	x := lr.design(data.X)
	_, p := x.Dims()
	y := mat.NewVecDense(rows, append([]float64(nil), data.Y...))
	w := mat.NewVecDense(p, nil)

	var resid, grad mat.VecDense
	n := float64(rows)
	epoch := 0
	for epoch < lr.epochs {
		if err := ctx.Err(); err != nil {
			return err
		}
		epoch++

		resid.MulVec(x, w)
		resid.SubVec(&resid, y)
		grad.MulVec(x.T(), &resid)
		grad.ScaleVec(1/n, &grad)
		if lr.l2 > 0 {
			// The intercept is not penalised.
			for j := 0; j < cols; j++ {
				grad.SetVec(j, grad.AtVec(j)+lr.l2*w.AtVec(j))
			}
		}
		w.AddScaledVec(w, -lr.learningRate, &grad)

		if !finite(w.RawVector().Data) {
			return errors.Wrapf(ErrDiverged, "epoch %d, learning_rate %g", epoch, lr.learningRate)
		}
		if lr.tolerance > 0 && floats.Norm(grad.RawVector().Data, math.Inf(1)) < lr.tolerance {
			break
		}
	}

	var pred mat.VecDense
	pred.MulVec(x, w)
	mse := meanSquaredError(pred.RawVector().Data, data.Y)
	r2 := stat.RSquaredFrom(pred.RawVector().Data, data.Y, nil)

	if err := lr.RecordResults(map[string]float64{
		"mse":    mse,
		"r2":     r2,
		"epochs": float64(epoch),
	}); err != nil {
		return err
	}
	lr.weights = w
	ctxlog.FromContext(ctx).Debug("linear regression fitted",
		"rows", rows, "features", cols, "epochs", epoch, "mse", mse, "r2", r2)
	return nil
}

// Predict returns one prediction per row of x.
func (lr *LinearRegression) Predict(ctx context.Context, x mat.Matrix) ([]float64, error) {
	if lr.weights == nil {
		return nil, types.ErrNotFitted
	}
	if err := lr.Construct(); err != nil {
		return nil, err
	}
	want := lr.weights.Len()
	if lr.fitIntercept {
		want--
	}
	if _, cols := x.Dims(); cols != want {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d features, fitted on %d", cols, want)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var pred mat.VecDense
	pred.MulVec(lr.design(x), lr.weights)
	return append([]float64(nil), pred.RawVector().Data...), nil
}

// Coefficients returns the per-feature weights and the intercept (zero
// when fit_intercept is false). ok is false before fitting.
func (lr *LinearRegression) Coefficients() (coef []float64, intercept float64, ok bool) {
	if lr.weights == nil {
		return nil, 0, false
	}
	data := lr.weights.RawVector().Data
	fit, _ := lr.ParameterSet().Bool("fit_intercept")
	if fit {
		return append([]float64(nil), data[:len(data)-1]...), data[len(data)-1], true
	}
	return append([]float64(nil), data...), 0, true
}

// Artifacts stores the fitted weights in gonum's binary vector format.
func (lr *LinearRegression) Artifacts() (map[string][]byte, error) {
	if lr.weights == nil {
		return nil, nil
	}
	data, err := lr.weights.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encode weights")
	}
	return map[string][]byte{weightsArtifact: data}, nil
}

// RestoreArtifacts reloads the weights written by Artifacts.
func (lr *LinearRegression) RestoreArtifacts(artifacts map[string][]byte) error {
	data, ok := artifacts[weightsArtifact]
	if !ok {
		lr.weights = nil
		return nil
	}
	var w mat.VecDense
	if err := w.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "decode weights")
	}
	lr.weights = &w
	return nil
}

// design copies x into a dense matrix, with a trailing column of ones when
// fitting an intercept.
func (lr *LinearRegression) design(x mat.Matrix) *mat.Dense {
	rows, cols := x.Dims()
	if !lr.fitIntercept {
		return mat.DenseCopyOf(x)
	}
	d := mat.NewDense(rows, cols+1, nil)
	d.Slice(0, rows, 0, cols).(*mat.Dense).Copy(x)
	for i := 0; i < rows; i++ {
		d.Set(i, cols, 1)
	}
	return d
}

func meanSquaredError(pred, y []float64) float64 {
	diff := make([]float64, len(y))
	floats.SubTo(diff, pred, y)
	return floats.Dot(diff, diff) / float64(len(y))
}

func finite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
