// Package commands implements the CLI commands for stache.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/stache/internal/app"
	"go.trai.ch/stache/internal/build"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for stache.
type CLI struct {
	app     Application
	json    JSONSwitch
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Roots(ctx context.Context, opts app.RootsOptions) error
	Render(ctx context.Context, opts app.RenderOptions) error
	Tree(ctx context.Context, opts app.TreeOptions) error
	Check(ctx context.Context, opts app.CheckOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	Watch(ctx context.Context, opts app.WatchOptions) error
}

// JSONSwitch is implemented by loggers that can emit JSON.
type JSONSwitch interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app. log may be nil; when it
// implements JSONSwitch the --json flag is honoured.
func New(a Application, log any) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stache",
		Short:         "Preview mustache templates by the roots that include them",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringP("output", "o", "auto", "Output mode: auto, pretty, or linear")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Run as if started in this directory")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	if sw, ok := log.(JSONSwitch); ok {
		c.json = sw
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.json == nil {
			return
		}
		enable, _ := cmd.Flags().GetBool("json")
		c.json.SetJSON(enable)
	}

	rootCmd.AddCommand(c.newRootsCmd())
	rootCmd.AddCommand(c.newRenderCmd())
	rootCmd.AddCommand(c.newTreeCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// workDir returns the absolute directory commands operate in.
func workDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", zerr.Wrap(err, "failed to get working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "invalid directory"), "dir", dir)
	}
	return abs, nil
}
