package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type snapshotView struct {
	ID              string   `json:"snapshot_id" yaml:"snapshot_id"`
	Kind            string   `json:"kind" yaml:"kind"`
	Tag             string   `json:"tag" yaml:"tag"`
	Format          string   `json:"format" yaml:"format"`
	Parameters      int      `json:"parameters" yaml:"parameters"`
	HyperParameters int      `json:"hyper_parameters" yaml:"hyper_parameters"`
	Artifacts       []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	SavedAt         string   `json:"saved_at" yaml:"saved_at"`
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [kind]",
		Short: "List saved snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = strings.ToLower(args[0])
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			snaps, err := s.catalog.List(kind)
			if err != nil {
				return err
			}
			views := make([]snapshotView, 0, len(snaps))
			for _, sn := range snaps {
				views = append(views, snapshotView{
					ID:              sn.SnapshotID,
					Kind:            sn.Kind,
					Tag:             sn.Tag,
					Format:          sn.Format,
					Parameters:      sn.Parameters,
					HyperParameters: sn.HyperParameters,
					Artifacts:       sn.Artifacts,
					SavedAt:         sn.SavedAt.Format(time.RFC3339),
				})
			}
			if a.jsonMode {
				return a.render(cmd.OutOrStdout(), views)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tTAG\tFORMAT\tPARAMS\tHYPER\tARTIFACTS\tSAVED")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					v.Kind, v.Tag, v.Format, v.Parameters, v.HyperParameters, strings.Join(v.Artifacts, ","), v.SavedAt)
			}
			return tw.Flush()
		}),
	}
}
