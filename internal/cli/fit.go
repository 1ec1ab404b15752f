package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/ctxlog"
	"github.com/mesh-intelligence/modelkit/internal/dataset"
)

type fitFlags struct {
	data     string
	target   string
	features string
}

func (a *app) newFitCmd() *cobra.Command {
	var f fitFlags
	cmd := &cobra.Command{
		Use:   "fit <kind> <tag>",
		Short: "Fit a saved model on CSV data and save it back under the same tag",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			kind, tag := args[0], args[1]

			ds, err := dataset.ReadFile(f.data, dataset.Options{Target: f.target, Features: splitList(f.features)})
			if err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := loadEstimator(s, kind, tag)
			if err != nil {
				return err
			}
			if err := e.Fit(cmd.Context(), ds); err != nil {
				return err
			}
			if err := s.store.Save(e, tag, true); err != nil {
				return err
			}
			ctxlog.FromContext(cmd.Context()).Info("model fitted", "kind", e.Model().Kind(), "tag", tag)
			return a.render(cmd.OutOrStdout(), viewOf(e.Model(), tag))
		}),
	}
	cmd.Flags().StringVar(&f.data, "data", "", "CSV file with a header row")
	cmd.Flags().StringVar(&f.target, "target", "", "target column")
	cmd.Flags().StringVar(&f.features, "features", "", "comma-separated feature columns (default: all but target)")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("target")
	return cmd
}
