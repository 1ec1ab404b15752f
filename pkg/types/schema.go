package types

import (
	"fmt"
	"sort"
)

// Bounds is an inclusive (Min, Max) range. A nil side is unconstrained.
type Bounds struct {
	Min any
	Max any
}

// ParameterSpec declares one allowed parameter name.
type ParameterSpec struct {
	Name        string
	Type        ValueType
	Required    bool
	Bounds      *Bounds // only for ordered types
	Default     any     // nil means no default
	Description string
}

// Schema is the immutable set of specs a ParameterSet validates against.
// Build one with NewSchema; the zero Schema accepts no names.
type Schema struct {
	specs map[string]ParameterSpec
	order []string
}

// NewSchema validates specs and returns a Schema. Bounds and defaults are
// normalized to the spec's value type; integer literals are accepted for
// float bounds and defaults. Returns an error wrapping ErrInvalidSchema for
// empty or duplicate names, unknown types, bounds on unordered types,
// min > max, or a default that fails its own type or bounds.
func NewSchema(specs ...ParameterSpec) (Schema, error) {
	s := Schema{specs: make(map[string]ParameterSpec, len(specs))}
	for _, spec := range specs {
		if spec.Name == "" {
			return Schema{}, fmt.Errorf("%w: empty parameter name", ErrInvalidSchema)
		}
		if _, dup := s.specs[spec.Name]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidSchema, spec.Name)
		}
		if !spec.Type.IsValid() {
			return Schema{}, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidSchema, spec.Name, spec.Type)
		}
		if spec.Bounds != nil {
			b, err := normalizeBounds(spec)
			if err != nil {
				return Schema{}, err
			}
			spec.Bounds = b
		}
		if spec.Default != nil {
			d, ok := normalizeDeclared(spec.Type, spec.Default)
			if !ok {
				return Schema{}, fmt.Errorf("%w: default for %s is %T, expected %s", ErrInvalidSchema, spec.Name, spec.Default, spec.Type)
			}
			if _, bad := checkBounds(spec.Bounds, d); bad != "" {
				return Schema{}, fmt.Errorf("%w: default for %s is %s", ErrInvalidSchema, spec.Name, bad)
			}
			spec.Default = d
		}
		s.specs[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations. It panics on error.
func MustSchema(specs ...ParameterSpec) Schema {
	s, err := NewSchema(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the spec for name.
func (s Schema) Lookup(name string) (ParameterSpec, bool) {
	spec, ok := s.specs[name]
	if ok && spec.Bounds != nil {
		b := *spec.Bounds
		spec.Bounds = &b
	}
	if ok {
		spec.Default = copyValue(spec.Default)
	}
	return spec, ok
}

// Names returns the declared names in declaration order.
func (s Schema) Names() []string {
	return append([]string{}, s.order...)
}

// Specs returns copies of all specs in declaration order.
func (s Schema) Specs() []ParameterSpec {
	out := make([]ParameterSpec, 0, len(s.order))
	for _, name := range s.order {
		spec, _ := s.Lookup(name)
		out = append(out, spec)
	}
	return out
}

// Len returns the number of declared names.
func (s Schema) Len() int {
	return len(s.order)
}

// Required returns the required names, sorted.
func (s Schema) Required() []string {
	var names []string
	for name, spec := range s.specs {
		if spec.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func normalizeBounds(spec ParameterSpec) (*Bounds, error) {
	if !spec.Type.IsOrdered() {
		return nil, fmt.Errorf("%w: %s has bounds but type %s is not ordered", ErrInvalidSchema, spec.Name, spec.Type)
	}
	var b Bounds
	if spec.Bounds.Min != nil {
		v, ok := normalizeDeclared(spec.Type, spec.Bounds.Min)
		if !ok {
			return nil, fmt.Errorf("%w: min for %s is %T, expected %s", ErrInvalidSchema, spec.Name, spec.Bounds.Min, spec.Type)
		}
		b.Min = v
	}
	if spec.Bounds.Max != nil {
		v, ok := normalizeDeclared(spec.Type, spec.Bounds.Max)
		if !ok {
			return nil, fmt.Errorf("%w: max for %s is %T, expected %s", ErrInvalidSchema, spec.Name, spec.Bounds.Max, spec.Type)
		}
		b.Max = v
	}
	if b.Min != nil && b.Max != nil && compareOrdered(b.Min, b.Max) > 0 {
		return nil, fmt.Errorf("%w: min for %s is greater than max", ErrInvalidSchema, spec.Name)
	}
	return &b, nil
}

// normalizeDeclared is Normalize with integer literals widened for float
// types, so schemas can be written as Bounds{Min: 0, Max: 1}.
func normalizeDeclared(vt ValueType, v any) (any, bool) {
	if vt == ValueTypeFloat {
		switch x := v.(type) {
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
	}
	n, ok := vt.Normalize(v)
	if ok && nonFinite(n) {
		return nil, false
	}
	return n, ok
}

// checkBounds applies the lower then the upper bound to a normalized value.
// It returns the violated bound and check, or "" when v is in range.
func checkBounds(b *Bounds, v any) (any, Check) {
	if b == nil {
		return nil, ""
	}
	if b.Min != nil && compareOrdered(v, b.Min) < 0 {
		return b.Min, CheckBelowMin
	}
	if b.Max != nil && compareOrdered(v, b.Max) > 0 {
		return b.Max, CheckAboveMax
	}
	return nil, ""
}
