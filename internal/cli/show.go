package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/estimators"
	"github.com/mesh-intelligence/modelkit/internal/filestore"
	"github.com/mesh-intelligence/modelkit/pkg/model"
)

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <tag>",
		Short: "Load a saved model and print its values",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := loadEstimator(s, args[0], args[1])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), viewOf(e.Model(), args[1]))
		}),
	}
}

// loadEstimator builds a fresh estimator of kind and loads tag into it.
func loadEstimator(s *session, kind, tag string) (model.Estimator, error) {
	factory, err := estimators.FactoryFor(kind)
	if err != nil {
		return nil, err
	}
	return filestore.Load[model.Estimator](s.store, tag, factory)
}
