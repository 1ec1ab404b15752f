package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize modelkit storage",
		Long:  "Create the configuration and data directories and build the snapshot catalog.",
		Args:  cobra.NoArgs,
		RunE:  runE(a.runInit),
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	// setup already created the config directory and config.yaml.
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "modelkit initialized successfully")
	fmt.Fprintln(out, "  config:", a.configDir)
	fmt.Fprintln(out, "  data:  ", s.config.DataDir)
	return nil
}
