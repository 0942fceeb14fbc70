package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/manifest"
	"github.com/matzehuels/gafetes/pkg/roster"
)

func (c *CLI) manifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build and inspect the ordered badge manifest",
	}
	cmd.AddCommand(c.manifestBuildCommand())
	cmd.AddCommand(c.manifestShowCommand())
	return cmd
}

func (c *CLI) manifestBuildCommand() *cobra.Command {
	var (
		output     string
		expect     int
		rosterPath string
	)

	cmd := &cobra.Command{
		Use:   "build DIR",
		Short: "Scan a badge directory into an ordered manifest",
		Long: `Build decodes every file name in DIR into an ordering key and role, pairs
each director with its companion and writes the pairs in ascending key order.

Directory listing order never matters. Two files for the same key and role,
or a companion without a director, abort the build with every conflict
listed. With --expect or --roster the asset count is checked, and with
--roster each attendee's director and companion badges are checked too.`,
		Example: `  gafetes manifest build scaled -o manifest.json
  gafetes manifest build scaled -o manifest.json --roster asistentes.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := manifest.BuildOptions{ExpectedAssets: expect, Logger: loggerFromContext(ctx)}
			if rosterPath != "" {
				records, err := roster.ReadFile(rosterPath)
				if err != nil {
					return err
				}
				opts.Roster = records
			}

			m, report, err := manifest.Build(args[0], opts)
			printReport(report)
			if err != nil {
				// An old manifest must not be composed as if it matched this directory.
				if rmErr := os.Remove(output); rmErr != nil && !os.IsNotExist(rmErr) {
					printWarning("could not remove stale %s: %v", output, rmErr)
				}
				printFailures(err)
				return err
			}
			if err := manifest.WriteFile(output, m); err != nil {
				return err
			}

			printSuccess("Manifest with %d sheets (%d companions)", m.Len(), m.CompanionCount())
			if report.Expected > 0 {
				printCounts(fmt.Sprintf("%d assets", report.Recognized), fmt.Sprintf("%d expected", report.Expected))
			}
			printFile(output)
			printNewline()
			printNextStep("Compose the sheets", fmt.Sprintf("%s compose %s -o gafetes.pdf", appName, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "manifest.json", "manifest file to write")
	cmd.Flags().IntVar(&expect, "expect", 0, "expected number of assets")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "roster to check the assets against")
	return cmd
}

func (c *CLI) manifestShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show MANIFEST",
		Short: "Print a manifest as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Println(manifestTable(m))
			printCounts(
				fmt.Sprintf("%d sheets", m.Len()),
				fmt.Sprintf("%d assets", m.AssetCount()),
				StyleDim.Render(m.ID),
			)
			return nil
		},
	}
}
