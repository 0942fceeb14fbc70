package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the gafetes CLI with logs written to w and returns the first
// command error. The --verbose flag switches logging to debug level.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Stderr); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, w io.Writer, args ...string) error {
	root := newRoot(w)
	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}

// newRoot builds the root command with the --verbose flag layered over
// the CLI's own persistent setup.
func newRoot(w io.Writer) *cobra.Command {
	var verbose bool

	c := New(w, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	pre := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		if pre != nil {
			return pre(cmd, args)
		}
		return nil
	}
	return root
}
