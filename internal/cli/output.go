package cli

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// render writes v as indented JSON with --json, YAML otherwise.
func (a *app) render(w io.Writer, v any) error {
	if a.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
