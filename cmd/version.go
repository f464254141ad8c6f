package cmd

import (
	"fmt"

	"github.com/smazurov/playoutnode/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return writeJSON(c.OutOrStdout(), info)
			}
			_, err := fmt.Fprintf(c.OutOrStdout(), "playoutnode %s %s %s\n", info, info.GoVersion, info.Platform)
			return err
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return c
}
