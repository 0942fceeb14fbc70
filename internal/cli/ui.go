package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/manifest"
	"github.com/matzehuels/gafetes/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stage Summaries
// =============================================================================

// printCounts prints "a · b · c" on one dimmed line.
func printCounts(parts ...string) {
	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	fmt.Println(b.String())
}

// printCacheLine reports how many items came from the cache.
func printCacheLine(hits, total int) {
	if total == 0 {
		return
	}
	if hits == total {
		fmt.Println("  " + styleCached.Render(fmt.Sprintf("all %d cached", total)))
		return
	}
	fmt.Println("  " + styleComputed.Render(fmt.Sprintf("%d of %d cached", hits, total)))
}

// printReport prints the findings of a manifest build.
func printReport(r *manifest.Report) {
	if r == nil {
		return
	}
	for _, u := range r.Unrecognized {
		printWarning("skipped %s: %s", u.Name, errors.UserMessage(u.Err))
	}
	for _, w := range r.Warnings {
		printWarning("%s", errors.UserMessage(w))
	}
}

// printFailures prints every coded error in err, one per line, so joined
// pairing conflicts are all visible.
func printFailures(err error) {
	all := errors.All(err)
	if len(all) < 2 {
		return
	}
	for _, e := range all {
		if e.Cause != nil && len(errors.All(e.Cause)) > 0 {
			continue
		}
		printError("%s", errors.UserMessage(e))
	}
}

// printRunStats prints per-stage durations of a full run.
func printRunStats(s pipeline.Stats) {
	printKeyValue("Generate", fmtStage(s.GenerateTime, s.Badges, "badges"))
	printKeyValue("Scale", fmtStage(s.ScaleTime, s.Scaled, "images"))
	printKeyValue("Manifest", fmtStage(s.ManifestTime, s.Scaled, "assets"))
	printKeyValue("Compose", fmtStage(s.ComposeTime, s.Pages, "pages"))
	printKeyValue("Total", s.Total().Round(time.Millisecond).String())
}

func fmtStage(d time.Duration, n int, unit string) string {
	return fmt.Sprintf("%d %s in %s", n, unit, d.Round(time.Millisecond))
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
