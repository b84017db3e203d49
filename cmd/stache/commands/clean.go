package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove rendered artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			return c.app.Clean(cmd.Context(), app.CleanOptions{Cwd: cwd})
		},
	}
}
