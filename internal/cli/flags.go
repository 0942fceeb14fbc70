package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/pipeline"
)

// stageFlags holds the flags that override pipeline.Options. Only flags
// the user actually set are applied, so config values survive.
type stageFlags struct {
	dpi         int
	sheet       string
	badgeWidth  float64
	badgeHeight float64
	gap         float64
	workers     int
	keyWidth    int
	title       string
}

// addImageFlags registers the resolution and badge size flags.
func addImageFlags(cmd *cobra.Command, f *stageFlags) {
	cmd.Flags().IntVar(&f.dpi, "dpi", compose.DefaultDPI, "print resolution in dots per inch")
	cmd.Flags().IntVar(&f.workers, "workers", pipeline.DefaultWorkers, "parallel image workers")
	addBadgeFlags(cmd, f)
}

// addBadgeFlags registers the physical badge size flags.
func addBadgeFlags(cmd *cobra.Command, f *stageFlags) {
	cmd.Flags().Float64Var(&f.badgeWidth, "badge-width", compose.DefaultBadge.WidthCm, "badge width in cm")
	cmd.Flags().Float64Var(&f.badgeHeight, "badge-height", compose.DefaultBadge.HeightCm, "badge height in cm")
}

// addSheetFlags registers the output sheet flags.
func addSheetFlags(cmd *cobra.Command, f *stageFlags) {
	cmd.Flags().StringVar(&f.sheet, "sheet", pipeline.DefaultSheet,
		"output sheet ("+strings.Join(compose.PaperNames(), ", ")+")")
	cmd.Flags().Float64Var(&f.gap, "gap", pipeline.DefaultGapCm, "space between paired badges in cm (negative for none)")
	_ = cmd.RegisterFlagCompletionFunc("sheet", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return compose.PaperNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

// addNamingFlags registers the badge file naming and content flags.
func addNamingFlags(cmd *cobra.Command, f *stageFlags) {
	cmd.Flags().IntVar(&f.keyWidth, "key-width", 0, "zero-padded key width (0 sizes it to the roster)")
	cmd.Flags().StringVar(&f.title, "title", "", "event title printed on each badge")
}

// apply copies every flag the user set onto opts.
func (f *stageFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fl := cmd.Flags()
	if fl.Changed("dpi") {
		opts.DPI = f.dpi
	}
	if fl.Changed("workers") {
		opts.Workers = f.workers
	}
	if fl.Changed("badge-width") {
		opts.BadgeWidthCm = f.badgeWidth
	}
	if fl.Changed("badge-height") {
		opts.BadgeHeightCm = f.badgeHeight
	}
	if fl.Changed("sheet") {
		opts.Sheet = f.sheet
		opts.SheetWidthIn, opts.SheetHeightIn = 0, 0
	}
	if fl.Changed("gap") {
		opts.GapCm = f.gap
		if f.gap == 0 {
			// Zero would fall back to the default gap.
			opts.GapCm = -1
		}
	}
	if fl.Changed("key-width") {
		opts.KeyWidth = f.keyWidth
	}
	if fl.Changed("title") {
		opts.Title = f.title
	}
}

// describeSheet renders the resolved sheet for status lines.
func describeSheet(opts pipeline.Options) string {
	p, err := opts.Paper()
	if err != nil {
		return opts.Sheet
	}
	w, h := p.Points()
	return fmt.Sprintf("%s %.0fx%.0f pt", p.Name, w, h)
}
