package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/errors"
)

func (c *CLI) scaleCommand() *cobra.Command {
	var (
		output string
		flags  stageFlags
	)

	cmd := &cobra.Command{
		Use:   "scale SRC",
		Short: "Fit badges to the print size",
		Long: `Scale renders every badge in SRC at the target DPI and resizes it so its
long side matches the badge's long side. Results are written to the output
directory as PNG with a "_scaled" suffix; files whose names do not carry an
ordering key and role are skipped and reported.`,
		Example: `  gafetes scale badges -o scaled
  gafetes scale badges -o scaled --dpi 600`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, opts)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(ctx))
			spin := newSpinnerWithContext(ctx, "Scaling badges...")
			spin.Start()
			res, err := runner.Scale(ctx, args[0], output)
			spin.Stop()
			if err != nil {
				printFailures(err)
				return err
			}
			prog.done(fmt.Sprintf("Scaled %d badges", len(res.Outputs)))

			printSuccess("Scaled %d badges at %d DPI", len(res.Outputs), runner.Options.DPI)
			printCacheLine(res.CacheHits(), len(res.Outputs))
			for _, s := range res.Skipped {
				printWarning("skipped %s: %s", s.Name, errors.UserMessage(s.Err))
			}
			printFile(output)
			printNewline()
			printNextStep("Build the manifest", fmt.Sprintf("%s manifest build %s -o manifest.json", appName, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "scaled", "output directory")
	addImageFlags(cmd, &flags)
	return cmd
}
