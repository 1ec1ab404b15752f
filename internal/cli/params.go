package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// parseAssignments turns name=value flags into typed assignments using the
// value types declared in schema. Names the schema does not know keep their
// raw string so that Set reports them as unknown.
func parseAssignments(schema types.Schema, raw []string) ([]types.Assignment, error) {
	out := make([]types.Assignment, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not name=value", errBadFlag, kv)
		}
		spec, known := schema.Lookup(name)
		if !known {
			out = append(out, types.Assignment{Name: name, Value: value})
			continue
		}
		v, err := parseValue(spec.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a valid %s", errBadFlag, name, value, spec.Type)
		}
		out = append(out, types.Assignment{Name: name, Value: v})
	}
	return out, nil
}

// parseValue converts s to the Go type that t stores.
func parseValue(t types.ValueType, s string) (any, error) {
	switch t {
	case types.ValueTypeFloat:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case types.ValueTypeInteger:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case types.ValueTypeBoolean:
		return strconv.ParseBool(strings.TrimSpace(s))
	case types.ValueTypeList:
		if s == "" {
			return []string{}, nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return s, nil
	}
}

// splitList splits a comma-separated flag, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
