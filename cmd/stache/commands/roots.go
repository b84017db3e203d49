package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newRootsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roots <template|artifact>",
		Short: "List the roots that include a template",
		Long: "List the roots whose include closure contains the given template.\n" +
			"The argument may be a template path, a template name, or a rendered artifact path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			return c.app.Roots(cmd.Context(), app.RootsOptions{Cwd: cwd, Ref: args[0]})
		},
	}
}
