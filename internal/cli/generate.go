package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) generateCommand() *cobra.Command {
	var (
		output string
		flags  stageFlags
	)

	cmd := &cobra.Command{
		Use:   "generate ROSTER",
		Short: "Render one badge PDF per attendee",
		Long: `Generate reads an attendee roster (.xlsx or .csv) and writes one badge PDF
per director, plus one per companion, named by ordering key and role:

  badges/001_director.pdf
  badges/001_companion.pdf
  badges/002_director.pdf`,
		Example: `  gafetes generate asistentes.xlsx -o badges
  gafetes generate roster.csv -o badges --key-width 4 --title "Congreso 2025"`,
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
			spin := newSpinnerWithContext(ctx, "Generating badges...")
			spin.Start()
			paths, records, err := runner.Generate(ctx, args[0], output)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Generated %d badges", len(paths)))

			printSuccess("Generated %d badges for %d attendees", len(paths), len(records))
			printFile(output)
			printNewline()
			printNextStep("Scale them", fmt.Sprintf("%s scale %s -o scaled", appName, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "badges", "output directory")
	addBadgeFlags(cmd, &flags)
	addNamingFlags(cmd, &flags)
	return cmd
}
