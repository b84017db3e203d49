package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render roots and keep them up to date while templates change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := workDir(cmd)
			if err != nil {
				return err
			}
			outputMode, _ := cmd.Flags().GetString("output")
			ci, _ := cmd.Flags().GetBool("ci")

			// If --ci is set, override output to "linear"
			if ci {
				outputMode = "linear"
			}

			return c.app.Watch(cmd.Context(), app.WatchOptions{Cwd: cwd, OutputMode: outputMode})
		},
	}
	cmd.Flags().Bool("ci", false, "Use linear output (shorthand for --output=linear)")
	return cmd
}
