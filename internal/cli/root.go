package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute builds the root command, wires --verbose to the logger level and
// runs the command line in os.Args.
func (c *CLI) Execute(ctx context.Context) error {
	return c.ExecuteArgs(ctx, nil)
}

// ExecuteArgs is [CLI.Execute] with explicit arguments. Nil args means
// os.Args[1:].
func (c *CLI) ExecuteArgs(ctx context.Context, args []string) error {
	root := c.command()
	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}

// command returns the root command with the --verbose flag.
func (c *CLI) command() *cobra.Command {
	var verbose bool
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}
	return root
}
