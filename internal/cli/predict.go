package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/dataset"
)

type predictView struct {
	Kind        string    `json:"kind" yaml:"kind"`
	Tag         string    `json:"tag" yaml:"tag"`
	Predictions []float64 `json:"predictions" yaml:"predictions"`
}

func (a *app) newPredictCmd() *cobra.Command {
	var data, features string
	cmd := &cobra.Command{
		Use:   "predict <kind> <tag>",
		Short: "Predict with a fitted model on CSV data",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			kind, tag := args[0], args[1]

			ds, err := dataset.ReadFile(data, dataset.Options{Features: splitList(features)})
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
			pred, err := e.Predict(cmd.Context(), ds.X)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), predictView{Kind: e.Model().Kind(), Tag: tag, Predictions: pred})
		}),
	}
	cmd.Flags().StringVar(&data, "data", "", "CSV file with a header row")
	cmd.Flags().StringVar(&features, "features", "", "comma-separated feature columns (default: all)")
	cmd.MarkFlagRequired("data")
	return cmd
}
