package types

import (
	"errors"
	"fmt"
)

// Parameter errors.
var (
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrMissingParameter        = errors.New("parameter not set")
	ErrIncompleteConfiguration = errors.New("incomplete configuration")
	ErrInvalidSchema           = errors.New("invalid schema")
)

// Model lifecycle errors.
var (
	ErrAlreadyFitted = errors.New("model is already fitted")
	ErrNotFitted     = errors.New("model is not fitted")
	ErrUnknownKind   = errors.New("unknown model kind")
)

// Storage errors.
var (
	ErrMissingModelData = errors.New("missing model data")
	ErrStorageConflict  = errors.New("model data already exists")
	ErrInvalidTag       = errors.New("invalid tag")
)

// Check identifies which validation step rejected a value.
type Check string

// Validation checks, in the order Set applies them.
const (
	CheckUnknownName Check = "unknown name"
	CheckType        Check = "wrong type"
	CheckNotFinite   Check = "not finite"
	CheckBelowMin    Check = "below min"
	CheckAboveMax    Check = "above max"
)

// ParameterError describes a rejected Set. It unwraps to ErrInvalidParameter.
type ParameterError struct {
	Set   string // "parameters" or "hyper_parameters"
	Name  string
	Check Check
	Value any
	Want  ValueType // expected type, set for CheckType
	Bound any       // violated bound, set for CheckBelowMin and CheckAboveMax
}

func (e *ParameterError) Error() string {
	switch e.Check {
	case CheckUnknownName:
		return fmt.Sprintf("%s: no parameter named %q", e.Set, e.Name)
	case CheckType:
		return fmt.Sprintf("%s: invalid type for %s: found %T, expected %s", e.Set, e.Name, e.Value, e.Want)
	case CheckBelowMin:
		return fmt.Sprintf("%s: invalid value for %s: %v is under min value of %v", e.Set, e.Name, e.Value, e.Bound)
	case CheckAboveMax:
		return fmt.Sprintf("%s: invalid value for %s: %v is over max value of %v", e.Set, e.Name, e.Value, e.Bound)
	default:
		return fmt.Sprintf("%s: invalid value for %s: %s", e.Set, e.Name, e.Check)
	}
}

// Unwrap makes errors.Is(err, ErrInvalidParameter) hold.
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}
