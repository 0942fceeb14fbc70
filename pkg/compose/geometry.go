package compose

import (
	"github.com/matzehuels/gafetes/pkg/errors"
)

// Size is a width and height in points.
type Size struct {
	W, H float64
}

// Rect is a placement in points, origin at the sheet's top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Overlaps reports whether r and o share any interior area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inside reports whether r lies entirely within a w by h sheet.
func (r Rect) Inside(w, h float64) bool {
	const eps = 1e-9
	return r.X >= -eps && r.Y >= -eps && r.X+r.W <= w+eps && r.Y+r.H <= h+eps
}

// Layout places one or two items on sheet without overlap.
//
// A single item is centred. Two items go side by side, separated by gap
// and centred as a group; when their combined width does not fit they are
// stacked vertically instead. Layout fails with INVALID_INPUT when neither
// arrangement fits.
func Layout(sheet PaperSize, items []Size, gap float64) ([]Rect, error) {
	sw, sh := sheet.Points()
	if gap < 0 {
		gap = 0
	}

	switch len(items) {
	case 1:
		it := items[0]
		if it.W > sw || it.H > sh {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"badge %.0fx%.0f pt does not fit sheet %s", it.W, it.H, sheet)
		}
		return []Rect{{X: (sw - it.W) / 2, Y: (sh - it.H) / 2, W: it.W, H: it.H}}, nil

	case 2:
		a, b := items[0], items[1]
		if w, h := a.W+gap+b.W, max(a.H, b.H); w <= sw && h <= sh {
			x := (sw - w) / 2
			return []Rect{
				{X: x, Y: (sh - a.H) / 2, W: a.W, H: a.H},
				{X: x + a.W + gap, Y: (sh - b.H) / 2, W: b.W, H: b.H},
			}, nil
		}
		if w, h := max(a.W, b.W), a.H+gap+b.H; w <= sw && h <= sh {
			y := (sh - h) / 2
			return []Rect{
				{X: (sw - a.W) / 2, Y: y, W: a.W, H: a.H},
				{X: (sw - b.W) / 2, Y: y + a.H + gap, W: b.W, H: b.H},
			}, nil
		}
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"two badges of %.0fx%.0f and %.0fx%.0f pt do not fit sheet %s side by side or stacked",
			a.W, a.H, b.W, b.H, sheet)

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "a sheet holds one or two badges, got %d", len(items))
	}
}
