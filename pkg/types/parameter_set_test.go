package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioSchema is the lr/depth schema used throughout these tests.
func scenarioSchema() Schema {
	return MustSchema(
		ParameterSpec{Name: "lr", Type: ValueTypeFloat, Required: true, Bounds: &Bounds{Min: 0.0, Max: 1.0}, Default: 0.01},
		ParameterSpec{Name: "depth", Type: ValueTypeInteger, Required: true, Bounds: &Bounds{Min: 1}},
	)
}

func TestParameterSetSet(t *testing.T) {
	s := MustSchema(
		ParameterSpec{Name: "lr", Type: ValueTypeFloat, Bounds: &Bounds{Min: 0.0, Max: 1.0}},
		ParameterSpec{Name: "l2", Type: ValueTypeFloat, Bounds: &Bounds{Min: 0.0}},
		ParameterSpec{Name: "depth", Type: ValueTypeInteger, Bounds: &Bounds{Min: 1}},
		ParameterSpec{Name: "cap", Type: ValueTypeInteger, Bounds: &Bounds{Max: 10}},
		ParameterSpec{Name: "name", Type: ValueTypeText, Bounds: &Bounds{Min: "b", Max: "y"}},
		ParameterSpec{Name: "verbose", Type: ValueTypeBoolean},
		ParameterSpec{Name: "cols", Type: ValueTypeList},
	)
	tests := []struct {
		name      string
		param     string
		value     any
		wantCheck Check
		wantValue any
	}{
		{"float inside bounds", "lr", 0.5, "", 0.5},
		{"float at lower bound", "lr", 0.0, "", 0.0},
		{"float at upper bound", "lr", 1.0, "", 1.0},
		{"float32 widened", "lr", float32(0.25), "", 0.25},
		{"float above max", "lr", 1.5, CheckAboveMax, nil},
		{"float below min", "lr", -0.1, CheckBelowMin, nil},
		{"float NaN", "lr", math.NaN(), CheckNotFinite, nil},
		{"float +Inf with open upper side", "l2", math.Inf(1), CheckNotFinite, nil},
		{"float -Inf checked before bounds", "l2", math.Inf(-1), CheckNotFinite, nil},
		{"int for float", "lr", 1, CheckType, nil},
		{"int at lower bound", "depth", 1, "", int64(1)},
		{"int with open upper side", "depth", int64(1 << 40), "", int64(1 << 40)},
		{"int32 widened", "depth", int32(3), "", int64(3)},
		{"int16 widened", "depth", int16(7), "", int64(7)},
		{"int8 widened", "depth", int8(2), "", int64(2)},
		{"unsigned rejected", "depth", uint(3), CheckType, nil},
		{"int below min", "depth", 0, CheckBelowMin, nil},
		{"float for int", "depth", 3.0, CheckType, nil},
		{"int with open lower side", "cap", -1000, "", int64(-1000)},
		{"int above max", "cap", 11, CheckAboveMax, nil},
		{"text inside bounds", "name", "mid", "", "mid"},
		{"text below min", "name", "a", CheckBelowMin, nil},
		{"text above max", "name", "z", CheckAboveMax, nil},
		{"bool", "verbose", true, "", true},
		{"string for bool", "verbose", "true", CheckType, nil},
		{"list", "cols", []string{"x", "y"}, "", []string{"x", "y"}},
		{"unknown name", "momentum", 0.9, CheckUnknownName, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewParameterSet(SetParameters, s)
			err := ps.Set(tt.param, tt.value)
			if tt.wantCheck == "" {
				require.NoError(t, err)
				got, ok := ps.Get(tt.param)
				require.True(t, ok)
				assert.Equal(t, tt.wantValue, got)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			var perr *ParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantCheck, perr.Check)
			assert.Equal(t, tt.param, perr.Name)
			assert.Equal(t, SetParameters, perr.Set)
			assert.Equal(t, 0, ps.Len(), "failed Set must not mutate the set")
		})
	}
}

func TestParameterSetFailedSetKeepsPrevious(t *testing.T) {
	ps := NewParameterSet(SetParameters, scenarioSchema())
	require.NoError(t, ps.Set("lr", 0.5))
	require.Error(t, ps.Set("lr", 1.5))

	v, ok := ps.Get("lr")
	require.True(t, ok)
	assert.Equal(t, 0.5, v)
}

func TestParameterSetRemove(t *testing.T) {
	ps := NewParameterSet(SetHyperParameters, scenarioSchema())
	require.NoError(t, ps.Set("depth", 3))

	v, err := ps.Remove("depth")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.False(t, ps.Has("depth"))

	_, err = ps.Remove("depth")
	assert.ErrorIs(t, err, ErrMissingParameter)

	// Remove then Set restores the prior value.
	require.NoError(t, ps.Set("depth", v))
	got, _ := ps.Get("depth")
	assert.Equal(t, int64(3), got)
}

func TestParameterSetReplaceAll(t *testing.T) {
	t.Run("applies every assignment", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, scenarioSchema())
		require.NoError(t, ps.Set("lr", 0.2))

		err := ps.ReplaceAll([]Assignment{{Name: "depth", Value: 4}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"depth": int64(4)}, ps.Values())
	})

	t.Run("rolls back to empty on failure", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, scenarioSchema())
		require.NoError(t, ps.Set("lr", 0.2))

		err := ps.ReplaceAll([]Assignment{
			{Name: "depth", Value: 4},
			{Name: "lr", Value: 7.0},
		})
		require.ErrorIs(t, err, ErrInvalidParameter)
		assert.Equal(t, 0, ps.Len())
	})

	t.Run("map helper sorts by name", func(t *testing.T) {
		got := Assignments(map[string]any{"b": 1, "a": 2, "c": 3})
		require.Len(t, got, 3)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "b", got[1].Name)
		assert.Equal(t, "c", got[2].Name)
	})
}

func TestParameterSetEnsureComplete(t *testing.T) {
	t.Run("without defaults only reports", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, scenarioSchema())
		require.NoError(t, ps.Set("depth", 2))

		assert.False(t, ps.EnsureComplete(false))
		assert.Equal(t, map[string]any{"depth": int64(2)}, ps.Values())
	})

	t.Run("incomplete pass applies nothing", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, scenarioSchema())

		assert.False(t, ps.EnsureComplete(true))
		assert.Equal(t, 0, ps.Len())
		assert.Equal(t, []string{"depth", "lr"}, ps.Missing())
	})

	t.Run("defaults fill required names", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, scenarioSchema())
		require.NoError(t, ps.Set("depth", 5))

		assert.True(t, ps.EnsureComplete(true))
		assert.Equal(t, map[string]any{"lr": 0.01, "depth": int64(5)}, ps.Values())
		assert.True(t, ps.Complete())
	})

	t.Run("optional names are ignored", func(t *testing.T) {
		ps := NewParameterSet(SetParameters, MustSchema(
			ParameterSpec{Name: "seed", Type: ValueTypeInteger, Default: 42},
		))
		assert.True(t, ps.EnsureComplete(false))
		assert.True(t, ps.EnsureComplete(true))
		assert.Equal(t, 0, ps.Len())
	})
}

func TestParameterSetScenario(t *testing.T) {
	ps := NewParameterSet(SetParameters, scenarioSchema())

	require.NoError(t, ps.Set("lr", 0.5))
	require.ErrorIs(t, ps.Set("lr", 1.5), ErrInvalidParameter)
	assert.False(t, ps.EnsureComplete(true))

	require.NoError(t, ps.Set("depth", 3))
	assert.True(t, ps.EnsureComplete(true))
	assert.Equal(t, map[string]any{"lr": 0.5, "depth": int64(3)}, ps.Values())
}

func TestParameterSetValuesAreCopies(t *testing.T) {
	ps := NewParameterSet(SetParameters, MustSchema(
		ParameterSpec{Name: "cols", Type: ValueTypeList},
	))
	in := []string{"a", "b"}
	require.NoError(t, ps.Set("cols", in))
	in[0] = "changed"

	vals := ps.Values()
	vals["cols"].([]string)[1] = "changed"

	got, _ := ps.Get("cols")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestParameterSetTypedGetters(t *testing.T) {
	ps := NewParameterSet(SetParameters, MustSchema(
		ParameterSpec{Name: "f", Type: ValueTypeFloat},
		ParameterSpec{Name: "i", Type: ValueTypeInteger},
		ParameterSpec{Name: "b", Type: ValueTypeBoolean},
		ParameterSpec{Name: "s", Type: ValueTypeText},
	))
	require.NoError(t, ps.ReplaceAll(Assignments(map[string]any{"f": 1.5, "i": 2, "b": true, "s": "x"})))

	f, ok := ps.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)
	i, ok := ps.Int("i")
	assert.True(t, ok)
	assert.Equal(t, int64(2), i)
	b, ok := ps.Bool("b")
	assert.True(t, ok)
	assert.True(t, b)
	s, ok := ps.Text("s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = ps.Float("i")
	assert.False(t, ok)
}
