// Package dataset reads tabular training data into gonum matrices.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/modelkit/pkg/model"
)

// Dataset errors.
var (
	ErrNoRows        = errors.New("no data rows")
	ErrUnknownColumn = errors.New("unknown column")
	ErrBadCell       = errors.New("cell is not a number")
)

// Options selects columns. An empty Target yields a dataset without Y.
// Empty Features selects every column except Target, in file order.
type Options struct {
	Target   string
	Features []string
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, opts Options) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	ds, err := Read(f, opts)
	if err != nil {
		return model.Dataset{}, errors.Wrap(err, path)
	}
	return ds, nil
}

// Read parses CSV with a header row. Every selected cell must parse as a
// float; unselected columns may hold anything.
func Read(r io.Reader, opts Options) (model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return model.Dataset{}, ErrNoRows
	}
	if err != nil {
		return model.Dataset{}, errors.Wrap(err, "read header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	target := -1
	if opts.Target != "" {
		i, ok := index[opts.Target]
		if !ok {
			return model.Dataset{}, errors.Wrapf(ErrUnknownColumn, "target %q", opts.Target)
		}
		target = i
	}

	features := opts.Features
	if len(features) == 0 {
		for i, h := range header {
			if i != target {
				features = append(features, strings.TrimSpace(h))
			}
		}
	}
	cols := make([]int, len(features))
	for j, name := range features {
		i, ok := index[name]
		if !ok {
			return model.Dataset{}, errors.Wrapf(ErrUnknownColumn, "feature %q", name)
		}
		cols[j] = i
	}

	var xs, ys []float64
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Dataset{}, errors.Wrapf(err, "read row %d", rows+1)
		}
		rows++
		for j, i := range cols {
			v, err := parseCell(rec[i])
			if err != nil {
				return model.Dataset{}, errors.Wrapf(ErrBadCell, "row %d column %s: %q", rows, features[j], rec[i])
			}
			xs = append(xs, v)
		}
		if target >= 0 {
			v, err := parseCell(rec[target])
			if err != nil {
				return model.Dataset{}, errors.Wrapf(ErrBadCell, "row %d column %s: %q", rows, opts.Target, rec[target])
			}
			ys = append(ys, v)
		}
	}
	if rows == 0 || len(cols) == 0 {
		return model.Dataset{}, ErrNoRows
	}

	return model.Dataset{
		Features: append([]string(nil), features...),
		X:        mat.NewDense(rows, len(cols), xs),
		Y:        ys,
	}, nil
}

func parseCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
