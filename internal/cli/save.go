package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/estimators"
	"github.com/mesh-intelligence/modelkit/pkg/model"
)

type saveFlags struct {
	params    []string
	hyper     []string
	defaults  bool
	overwrite bool
}

func (a *app) newSaveCmd() *cobra.Command {
	var f saveFlags
	cmd := &cobra.Command{
		Use:   "save <kind> <tag>",
		Short: "Configure a model and save its parameters under a tag",
		Example: "  modelkit save linearregression run1 --param l2=0.1 --hyper learning_rate=0.05\n" +
			"  modelkit save baseline b1 --defaults --overwrite",
		Args: cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return a.runSave(cmd, args[0], args[1], f)
		}),
	}
	cmd.Flags().StringArrayVar(&f.params, "param", nil, "parameter as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.hyper, "hyper", nil, "hyper-parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&f.defaults, "defaults", false, "fill unset required values from schema defaults")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "replace an existing snapshot with the same tag")
	return cmd
}

func (a *app) runSave(cmd *cobra.Command, kind, tag string, f saveFlags) error {
	e, err := estimators.New(kind)
	if err != nil {
		return err
	}
	m := e.Model()
	if err := applyAssignments(m, f.params, f.hyper); err != nil {
		return err
	}
	if f.defaults {
		m.EnsureParameters(true)
		m.EnsureHyperParameters(true)
	}

	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Save(e, tag, f.overwrite); err != nil {
		return err
	}
	if a.jsonMode {
		return a.render(cmd.OutOrStdout(), viewOf(m, tag))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s/%s (%s)\n", m.Kind(), tag, m.State())
	return nil
}

// applyAssignments sets --param and --hyper values on m, one at a time so
// the first invalid value stops with nothing after it applied.
func applyAssignments(m *model.Model, params, hyper []string) error {
	ps, err := parseAssignments(m.ParameterSet().Schema(), params)
	if err != nil {
		return err
	}
	hs, err := parseAssignments(m.HyperParameterSet().Schema(), hyper)
	if err != nil {
		return err
	}
	for _, as := range ps {
		if err := m.AddParameter(as.Name, as.Value); err != nil {
			return err
		}
	}
	for _, as := range hs {
		if err := m.AddHyperParameter(as.Name, as.Value); err != nil {
			return err
		}
	}
	return nil
}

// modelView is the printable state of a model.
type modelView struct {
	Kind            string             `json:"kind" yaml:"kind"`
	Tag             string             `json:"tag,omitempty" yaml:"tag,omitempty"`
	State           model.State        `json:"state" yaml:"state"`
	Parameters      map[string]any     `json:"parameters" yaml:"parameters"`
	HyperParameters map[string]any     `json:"hyper_parameters" yaml:"hyper_parameters"`
	Results         map[string]float64 `json:"results,omitempty" yaml:"results,omitempty"`
}

func viewOf(m *model.Model, tag string) modelView {
	return modelView{
		Kind:            m.Kind(),
		Tag:             tag,
		State:           m.State(),
		Parameters:      m.Parameters(),
		HyperParameters: m.HyperParameters(),
		Results:         m.Results(),
	}
}
