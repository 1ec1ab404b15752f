package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/estimators"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

func (a *app) newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered model kinds",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.render(cmd.OutOrStdout(), estimators.Kinds())
		}),
	}
}

// specView is the printable form of one ParameterSpec.
type specView struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Min         any    `json:"min,omitempty" yaml:"min,omitempty"`
	Max         any    `json:"max,omitempty" yaml:"max,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type schemaView struct {
	Kind            string     `json:"kind" yaml:"kind"`
	Parameters      []specView `json:"parameters" yaml:"parameters"`
	HyperParameters []specView `json:"hyper_parameters" yaml:"hyper_parameters"`
}

func specViews(s types.Schema) []specView {
	out := []specView{}
	for _, spec := range s.Specs() {
		v := specView{
			Name:        spec.Name,
			Type:        string(spec.Type),
			Required:    spec.Required,
			Default:     spec.Default,
			Description: spec.Description,
		}
		if spec.Bounds != nil {
			v.Min, v.Max = spec.Bounds.Min, spec.Bounds.Max
		}
		out = append(out, v)
	}
	return out
}

func (a *app) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <kind>",
		Short: "Print the parameter schemas of a model kind",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			e, err := estimators.New(args[0])
			if err != nil {
				return err
			}
			m := e.Model()
			return a.render(cmd.OutOrStdout(), schemaView{
				Kind:            m.Kind(),
				Parameters:      specViews(m.ParameterSet().Schema()),
				HyperParameters: specViews(m.HyperParameterSet().Schema()),
			})
		}),
	}
}
