package compose

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/gafetes/pkg/errors"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestLayoutSingleCentred(t *testing.T) {
	sheet := PaperSize{Name: "test", WidthIn: 10, HeightIn: 10} // 720 x 720 pt
	got, err := Layout(sheet, []Size{{W: 200, H: 300}}, 20)
	if err != nil {
		t.Fatal(err)
	}
	want := []Rect{{X: 260, Y: 210, W: 200, H: 300}}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutSideBySide(t *testing.T) {
	sheet := PaperSize{Name: "test", WidthIn: 10, HeightIn: 10}
	got, err := Layout(sheet, []Size{{W: 200, H: 300}, {W: 200, H: 200}}, 20)
	if err != nil {
		t.Fatal(err)
	}
	// Group width 420, starts at (720-420)/2 = 150.
	want := []Rect{
		{X: 150, Y: 210, W: 200, H: 300},
		{X: 370, Y: 260, W: 200, H: 200},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutStacksWhenTooWide(t *testing.T) {
	sheet := PaperSize{Name: "narrow", WidthIn: 4, HeightIn: 10} // 288 x 720 pt
	got, err := Layout(sheet, []Size{{W: 200, H: 300}, {W: 200, H: 300}}, 20)
	if err != nil {
		t.Fatal(err)
	}
	// Stack height 620, starts at 50.
	want := []Rect{
		{X: 44, Y: 50, W: 200, H: 300},
		{X: 44, Y: 370, W: 200, H: 300},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutErrors(t *testing.T) {
	small := PaperSize{Name: "small", WidthIn: 2, HeightIn: 2} // 144 x 144 pt
	tests := []struct {
		name  string
		items []Size
	}{
		{"none", nil},
		{"three", []Size{{10, 10}, {10, 10}, {10, 10}}},
		{"single too big", []Size{{W: 200, H: 100}}},
		{"pair fits neither way", []Size{{W: 100, H: 100}, {W: 100, H: 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Layout(small, tt.items, 10)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Layout error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

// TestLayoutProperties checks every named sheet with default badges at
// several DPIs: placements stay inside the sheet and never overlap.
func TestLayoutProperties(t *testing.T) {
	for name, sheet := range PaperSizes {
		for _, dpi := range []int{72, 150, 300, 600} {
			w, h := DefaultBadge.Pixels(dpi)
			badge := Size{W: PixelsToPoints(w, dpi), H: PixelsToPoints(h, dpi)}
			for _, items := range [][]Size{{badge}, {badge, badge}} {
				rects, err := Layout(sheet, items, DefaultGap)
				if err != nil {
					t.Errorf("%s @%d: %v", name, dpi, err)
					continue
				}
				sw, sh := sheet.Points()
				for i, r := range rects {
					if !r.Inside(sw, sh) {
						t.Errorf("%s @%d: rect %d %+v outside %vx%v", name, dpi, i, r, sw, sh)
					}
				}
				if len(rects) == 2 && rects[0].Overlaps(rects[1]) {
					t.Errorf("%s @%d: rects overlap: %+v", name, dpi, rects)
				}
			}
		}
	}
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	tests := []struct {
		b    Rect
		want bool
	}{
		{Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{Rect{X: 10, Y: 0, W: 10, H: 10}, false}, // touching edge
		{Rect{X: 0, Y: 20, W: 10, H: 10}, false},
	}
	for _, tt := range tests {
		if got := a.Overlaps(tt.b); got != tt.want {
			t.Errorf("Overlaps(%+v) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestDPIConversion(t *testing.T) {
	// 14.5 cm = 5.7087 in; at 300 dpi that is 1712.6 px.
	if got := CmToPixels(14.5, 300); got != 1713 {
		t.Errorf("CmToPixels(14.5, 300) = %d, want 1713", got)
	}
	if got := CmToPixels(2.54, 300); got != 300 {
		t.Errorf("CmToPixels(2.54, 300) = %d, want 300", got)
	}
	if got := PixelsToPoints(300, 300); got != 72 {
		t.Errorf("PixelsToPoints(300, 300) = %v, want 72", got)
	}
	// The physical size is independent of DPI.
	for _, dpi := range []int{150, 300, 600} {
		pt := PixelsToPoints(DefaultBadge.LongPixels(dpi), dpi)
		if want := 14.5 / 2.54 * 72; math.Abs(pt-want) > 72.0/float64(dpi) {
			t.Errorf("@%d dpi long side = %.2f pt, want %.2f", dpi, pt, want)
		}
	}
}

func TestPaperSizes(t *testing.T) {
	w, h := DefaultPaper.Points()
	if w != 792 || h != 1224 {
		t.Errorf("tabloid = %vx%v pt, want 792x1224", w, h)
	}
	a3, err := LookupPaper("A3")
	if err != nil {
		t.Fatal(err)
	}
	if w, h := a3.Points(); math.Round(w) != 842 || math.Round(h) != 1191 {
		t.Errorf("a3 = %vx%v pt, want 842x1191", w, h)
	}
	if _, err := LookupPaper("napkin"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("LookupPaper(napkin) error = %v", err)
	}
}
