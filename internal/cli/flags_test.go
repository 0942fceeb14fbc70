package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/pipeline"
)

func newFlagCommand(f *stageFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addImageFlags(cmd, f)
	addSheetFlags(cmd, f)
	addNamingFlags(cmd, f)
	return cmd
}

func TestStageFlagsApply(t *testing.T) {
	config := pipeline.Options{
		DPI:           600,
		Sheet:         "custom",
		SheetWidthIn:  12,
		SheetHeightIn: 18,
		GapCm:         2,
		Title:         "Congreso",
	}

	tests := []struct {
		name string
		args []string
		want pipeline.Options
	}{
		{
			name: "no flags keeps config",
			args: nil,
			want: config,
		},
		{
			name: "dpi overrides",
			args: []string{"--dpi", "150"},
			want: func() pipeline.Options { o := config; o.DPI = 150; return o }(),
		},
		{
			name: "sheet resets custom size",
			args: []string{"--sheet", "a3"},
			want: func() pipeline.Options { o := config; o.Sheet = "a3"; o.SheetWidthIn, o.SheetHeightIn = 0, 0; return o }(),
		},
		{
			name: "zero gap means none",
			args: []string{"--gap", "0"},
			want: func() pipeline.Options { o := config; o.GapCm = -1; return o }(),
		},
		{
			name: "naming and badge",
			args: []string{"--key-width", "4", "--title", "Gala", "--badge-width", "10", "--workers", "2"},
			want: func() pipeline.Options {
				o := config
				o.KeyWidth, o.Title, o.BadgeWidthCm, o.Workers = 4, "Gala", 10, 2
				return o
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f stageFlags
			cmd := newFlagCommand(&f)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			got := config
			f.apply(cmd, &got)
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(pipeline.Options{}, "Logger")); diff != "" {
				t.Errorf("apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescribeSheet(t *testing.T) {
	opts := pipeline.Options{Sheet: "tabloid"}
	if got := describeSheet(opts); got != "tabloid 792x1224 pt" {
		t.Errorf("describeSheet() = %q", got)
	}
	opts.Sheet = "nonsense"
	if got := describeSheet(opts); got != "nonsense" {
		t.Errorf("describeSheet(unknown) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int]string{512: "512 B", 2048: "2.0 KiB", 5 << 20: "5.0 MiB"}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
