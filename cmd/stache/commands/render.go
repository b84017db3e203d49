package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [roots...]",
		Short: "Render roots to preview artifacts",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			stdout, _ := cmd.Flags().GetBool("stdout")
			return c.app.Render(cmd.Context(), app.RenderOptions{
				Cwd:    cwd,
				Refs:   args,
				Stdout: stdout,
			})
		},
	}
	cmd.Flags().Bool("stdout", false, "Write the rendered output instead of the artifact paths")
	return cmd
}
