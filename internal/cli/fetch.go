package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/modelkit/internal/fetch"
)

type fetchFlags struct {
	retries   int
	retryWait string
	progress  bool
}

func (a *app) newFetchCmd() *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch <url> [path]",
		Short: "Download a data file with retries",
		Args:  cobra.RangeArgs(1, 2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("retries") {
				a.cfg.Set(cfgKeyFetchRetries, f.retries)
			}
			if cmd.Flags().Changed("retry-wait") {
				a.cfg.Set(cfgKeyFetchRetryWait, f.retryWait)
			}
			wait, err := retryWait(a.cfg)
			if err != nil {
				return err
			}
			client := fetch.New(
				fetch.WithRetries(a.cfg.GetInt(cfgKeyFetchRetries)),
				fetch.WithRetryWait(wait),
			)

			dest := ""
			if len(args) == 2 {
				dest = args[1]
			}
			var progress io.Writer
			if f.progress {
				progress = cmd.ErrOrStderr()
			}
			path, err := client.Download(cmd.Context(), args[0], dest, progress)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().IntVar(&f.retries, "retries", fetch.DefaultRetries, "total attempts before giving up")
	cmd.Flags().StringVar(&f.retryWait, "retry-wait", fetch.DefaultRetryWait.String(), "delay before the first retry")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "show a progress bar on stderr")
	return cmd
}
