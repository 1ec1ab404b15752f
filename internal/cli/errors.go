package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/dataset"
	"github.com/mesh-intelligence/modelkit/internal/estimators"
	"github.com/mesh-intelligence/modelkit/internal/fetch"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// errBadFlag marks malformed flag values such as --param without "=".
var errBadFlag = errors.New("invalid flag value")

// userErrors are the causes that exit with exitUserError.
var userErrors = []error{
	errBadFlag,
	types.ErrInvalidParameter,
	types.ErrMissingParameter,
	types.ErrIncompleteConfiguration,
	types.ErrInvalidSchema,
	types.ErrAlreadyFitted,
	types.ErrNotFitted,
	types.ErrUnknownKind,
	types.ErrMissingModelData,
	types.ErrStorageConflict,
	types.ErrInvalidTag,
	types.ErrFormatEmpty,
	types.ErrFormatUnknown,
	estimators.ErrNoTarget,
	estimators.ErrShapeMismatch,
	estimators.ErrEmptyDataset,
	estimators.ErrDiverged,
	dataset.ErrNoRows,
	dataset.ErrUnknownColumn,
	dataset.ErrBadCell,
	fetch.ErrHTTPStatus,
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func sysErr(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// classify tags err with its exit code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return &exitError{code: exitUserError, err: err}
		}
	}
	return sysErr(err)
}

// exitCode maps a command error to a process exit code. Errors that never
// went through classify come from cobra itself (unknown command, bad
// arguments) and count as user errors.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// runE adapts a command body so its error carries an exit code.
func runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}
