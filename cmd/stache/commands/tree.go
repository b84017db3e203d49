package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <template>",
		Short: "Show the include tree of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			return c.app.Tree(cmd.Context(), app.TreeOptions{Cwd: cwd, Ref: args[0]})
		},
	}
}
