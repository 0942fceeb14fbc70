package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/manifest"
)

func (c *CLI) composeCommand() *cobra.Command {
	var (
		output string
		flags  stageFlags
	)

	cmd := &cobra.Command{
		Use:   "compose MANIFEST",
		Short: "Lay out manifest pairs onto print sheets",
		Long: `Compose writes one sheet per manifest pair, in manifest order. A director
and companion sit side by side (stacked if the sheet is too narrow), and a
director alone is centred. Every badge keeps its physical size at any DPI.

If any referenced badge is missing the run fails, naming the key and role,
and no output is written. A PDF an earlier run left at the output path is
removed, so a failed run never looks finished.`,
		Example: `  gafetes compose manifest.json -o gafetes.pdf
  gafetes compose manifest.json -o gafetes.pdf --sheet a3 --dpi 600`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			m, err := manifest.ReadFile(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, opts)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(ctx))
			var res *compose.Result
			err = withSheetProgress(ctx, "Composing sheets", m.Len(), func(onSheet func(done, total int)) error {
				runner.OnSheet = onSheet
				var err error
				res, err = runner.Compose(ctx, m, output)
				return err
			})
			if err != nil {
				printFailures(err)
				return err
			}
			prog.done(fmt.Sprintf("Composed %d sheets", res.Pages))

			printSuccess("Composed %d sheets", res.Pages)
			printCounts(describeSheet(runner.Options), fmt.Sprintf("%d DPI", runner.Options.DPI), formatBytes(res.Bytes))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "gafetes.pdf", "output PDF")
	addImageFlags(cmd, &flags)
	addSheetFlags(cmd, &flags)
	return cmd
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
