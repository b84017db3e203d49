package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report parse errors, dangling includes, and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			return c.app.Check(cmd.Context(), app.CheckOptions{Cwd: cwd})
		},
	}
}
