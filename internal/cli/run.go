package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (c *CLI) runCommand() *cobra.Command {
	var (
		output  string
		workDir string
		keep    bool
		flags   stageFlags
	)

	cmd := &cobra.Command{
		Use:   "run ROSTER",
		Short: "Generate, scale, order and compose in one go",
		Long: `Run executes every stage against ROSTER:

  1. generate  one badge PDF per attendee
  2. scale     fit each badge to the print size
  3. manifest  order and pair the scaled badges
  4. compose   lay out each pair on a sheet of the output PDF

Intermediate files go to the work directory. By default a temporary
directory is used and removed afterwards; with --work it is kept.`,
		Example: `  gafetes run asistentes.xlsx -o gafetes.pdf
  gafetes run roster.csv -o gafetes.pdf --work build --sheet a3`,
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

			dir := workDir
			if dir == "" {
				dir, err = os.MkdirTemp("", appName+"-")
				if err != nil {
					return fmt.Errorf("create work directory: %w", err)
				}
				if !keep {
					defer os.RemoveAll(dir)
				}
			}

			prog := newProgress(loggerFromContext(ctx))
			spin := newSpinnerWithContext(ctx, "Printing badges...")
			spin.Start()
			runner.OnSheet = func(done, total int) {
				spin.Update(fmt.Sprintf("Composing sheet %d of %d...", done, total))
			}
			res, err := runner.Run(ctx, args[0], dir, output)
			spin.Stop()
			if res != nil {
				printReport(res.Report)
			}
			if err != nil {
				printFailures(err)
				return err
			}
			prog.done(fmt.Sprintf("Printed %d attendees on %d sheets", res.Stats.Attendees, res.Stats.Pages))

			printSuccess("Composed %d sheets for %d attendees", res.Stats.Pages, res.Stats.Attendees)
			printRunStats(res.Stats)
			c.printCounters()
			printFile(output)
			if workDir != "" || keep {
				printDetail("Work directory: %s", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "gafetes.pdf", "output PDF")
	cmd.Flags().StringVar(&workDir, "work", "", "keep intermediate files in this directory")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the temporary work directory")
	addImageFlags(cmd, &flags)
	addSheetFlags(cmd, &flags)
	addNamingFlags(cmd, &flags)
	return cmd
}

// printCounters prints the cache and rasteriser counters gathered by the
// registered hooks.
func (c *CLI) printCounters() {
	hits, misses, _ := c.cacheStats.Snapshot()
	calls, failures, total := c.rasterStats.Snapshot()
	parts := []string{fmt.Sprintf("%d cache hits", hits), fmt.Sprintf("%d misses", misses)}
	if calls > 0 {
		parts = append(parts, fmt.Sprintf("%d rasterised in %s", calls, total.Round(1e6)))
	}
	if failures > 0 {
		parts = append(parts, fmt.Sprintf("%d rasteriser failures", failures))
	}
	printCounts(parts...)
}
