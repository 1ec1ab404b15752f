package types

import (
	"fmt"
	"sort"
)

// Set names used in errors and persisted artifacts.
const (
	SetParameters      = "parameters"
	SetHyperParameters = "hyper_parameters"
)

// Assignment is one name/value pair for ReplaceAll.
type Assignment struct {
	Name  string
	Value any
}

// Assignments turns a map into assignments sorted by name.
func Assignments(values map[string]any) []Assignment {
	out := make([]Assignment, 0, len(values))
	for name, v := range values {
		out = append(out, Assignment{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParameterSet stores values that satisfy a fixed Schema. Every stored name
// is declared in the schema, every value has the declared type and lies
// within the declared bounds. Not safe for concurrent use.
type ParameterSet struct {
	name   string
	schema Schema
	values map[string]any
}

// NewParameterSet returns an empty set validated against schema. name labels
// errors, typically SetParameters or SetHyperParameters.
func NewParameterSet(name string, schema Schema) *ParameterSet {
	return &ParameterSet{
		name:   name,
		schema: schema,
		values: make(map[string]any),
	}
}

// Name returns the label given at construction.
func (p *ParameterSet) Name() string { return p.name }

// Schema returns the schema the set validates against.
func (p *ParameterSet) Schema() Schema { return p.schema }

// Set validates value against the schema entry for name and stores it,
// replacing any existing value. On failure the set is unchanged and the
// returned *ParameterError names the failed check.
func (p *ParameterSet) Set(name string, value any) error {
	v, err := p.validate(name, value)
	if err != nil {
		return err
	}
	p.values[name] = v
	return nil
}

func (p *ParameterSet) validate(name string, value any) (any, error) {
	spec, ok := p.schema.specs[name]
	if !ok {
		return nil, &ParameterError{Set: p.name, Name: name, Check: CheckUnknownName, Value: value}
	}
	v, ok := spec.Type.Normalize(value)
	if !ok {
		return nil, &ParameterError{Set: p.name, Name: name, Check: CheckType, Value: value, Want: spec.Type}
	}
	if nonFinite(v) {
		return nil, &ParameterError{Set: p.name, Name: name, Check: CheckNotFinite, Value: value}
	}
	if bound, check := checkBounds(spec.Bounds, v); check != "" {
		return nil, &ParameterError{Set: p.name, Name: name, Check: check, Value: v, Bound: bound}
	}
	return v, nil
}

// Remove deletes and returns the value for name.
// Returns ErrMissingParameter if name has no value.
func (p *ParameterSet) Remove(name string) (any, error) {
	v, ok := p.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrMissingParameter, p.name, name)
	}
	delete(p.values, name)
	return v, nil
}

// ReplaceAll clears the set and applies assignments in order. If any
// assignment fails the set is left empty and the error is returned.
func (p *ParameterSet) ReplaceAll(assignments []Assignment) error {
	p.Clear()
	for _, a := range assignments {
		if err := p.Set(a.Name, a.Value); err != nil {
			p.Clear()
			return err
		}
	}
	return nil
}

// Clear removes every value.
func (p *ParameterSet) Clear() {
	p.values = make(map[string]any)
}

// EnsureComplete reports whether every required name has a value. When
// useDefaults is true, required names without a value take their schema
// default. Defaults are only applied when that makes the set complete; an
// incomplete result leaves the values untouched.
func (p *ParameterSet) EnsureComplete(useDefaults bool) bool {
	fill := make(map[string]any)
	for _, name := range p.schema.order {
		spec := p.schema.specs[name]
		if !spec.Required {
			continue
		}
		if _, ok := p.values[name]; ok {
			continue
		}
		if !useDefaults || spec.Default == nil {
			return false
		}
		fill[name] = copyValue(spec.Default)
	}
	for name, v := range fill {
		p.values[name] = v
	}
	return true
}

// Complete reports whether every required name has a value, without
// applying defaults.
func (p *ParameterSet) Complete() bool {
	return len(p.Missing()) == 0
}

// Missing returns the required names that have no value, sorted.
func (p *ParameterSet) Missing() []string {
	var missing []string
	for _, name := range p.schema.Required() {
		if _, ok := p.values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Get returns the value for name.
func (p *ParameterSet) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return copyValue(v), ok
}

// Has reports whether name has a value.
func (p *ParameterSet) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Len returns the number of stored values.
func (p *ParameterSet) Len() int {
	return len(p.values)
}

// Values returns a copy of the stored values.
// Returns an empty map (not nil) if nothing is set.
func (p *ParameterSet) Values() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = copyValue(v)
	}
	return out
}

// Float returns the float value for name, or false if unset or not a float.
func (p *ParameterSet) Float(name string) (float64, bool) {
	f, ok := p.values[name].(float64)
	return f, ok
}

// Int returns the integer value for name, or false if unset or not an integer.
func (p *ParameterSet) Int(name string) (int64, bool) {
	i, ok := p.values[name].(int64)
	return i, ok
}

// Bool returns the boolean value for name, or false if unset or not a boolean.
func (p *ParameterSet) Bool(name string) (value, ok bool) {
	value, ok = p.values[name].(bool)
	return value, ok
}

// Text returns the text value for name, or false if unset or not text.
func (p *ParameterSet) Text(name string) (string, bool) {
	s, ok := p.values[name].(string)
	return s, ok
}
