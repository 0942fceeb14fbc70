package compose

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/gafetes/pkg/errors"
)

const (
	pointsPerInch = 72.0
	cmPerInch     = 2.54
)

// DefaultDPI is the print resolution used when none is given.
const DefaultDPI = 300

// PaperSize is an output sheet in inches, portrait unless WidthIn > HeightIn.
type PaperSize struct {
	Name     string
	WidthIn  float64
	HeightIn float64
}

// Points returns the sheet size in PDF points.
func (p PaperSize) Points() (w, h float64) {
	return p.WidthIn * pointsPerInch, p.HeightIn * pointsPerInch
}

// Valid reports whether both dimensions are positive.
func (p PaperSize) Valid() bool { return p.WidthIn > 0 && p.HeightIn > 0 }

func (p PaperSize) String() string {
	return fmt.Sprintf("%s (%.2fx%.2f in)", p.Name, p.WidthIn, p.HeightIn)
}

func mm(v float64) float64 { return v / 10 / cmPerInch }

// PaperSizes lists the named sheets. The default is tabloid.
var PaperSizes = map[string]PaperSize{
	"tabloid": {Name: "tabloid", WidthIn: 11, HeightIn: 17},
	"ledger":  {Name: "ledger", WidthIn: 17, HeightIn: 11},
	"a3":      {Name: "a3", WidthIn: mm(297), HeightIn: mm(420)},
	"sra3":    {Name: "sra3", WidthIn: mm(320), HeightIn: mm(450)},
	"gafete":  {Name: "gafete", WidthIn: mm(330), HeightIn: mm(465)},
}

// DefaultPaper is the tabloid sheet.
var DefaultPaper = PaperSizes["tabloid"]

// LookupPaper returns the named paper size, case-insensitively.
func LookupPaper(name string) (PaperSize, error) {
	if p, ok := PaperSizes[strings.ToLower(name)]; ok {
		return p, nil
	}
	return PaperSize{}, errors.New(errors.ErrCodeInvalidInput,
		"unknown sheet %q (available: %s)", name, strings.Join(PaperNames(), ", "))
}

// PaperNames returns the names in PaperSizes, sorted.
func PaperNames() []string {
	names := make([]string, 0, len(PaperSizes))
	for n := range PaperSizes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BadgeSize is the physical size of one printed badge.
type BadgeSize struct {
	WidthCm  float64
	HeightCm float64
}

// DefaultBadge is the 9 x 14.5 cm event badge.
var DefaultBadge = BadgeSize{WidthCm: 9, HeightCm: 14.5}

// Valid reports whether both dimensions are positive.
func (b BadgeSize) Valid() bool { return b.WidthCm > 0 && b.HeightCm > 0 }

// LongCm returns the longer side in centimetres.
func (b BadgeSize) LongCm() float64 { return math.Max(b.WidthCm, b.HeightCm) }

// Pixels returns the badge size in pixels at dpi: inches times dpi, rounded.
func (b BadgeSize) Pixels(dpi int) (w, h int) {
	return CmToPixels(b.WidthCm, dpi), CmToPixels(b.HeightCm, dpi)
}

// LongPixels returns the longer side in pixels at dpi.
func (b BadgeSize) LongPixels(dpi int) int { return CmToPixels(b.LongCm(), dpi) }

// CmToPixels converts a physical length to pixels at dpi.
func CmToPixels(cm float64, dpi int) int {
	return int(math.Round(cm / cmPerInch * float64(dpi)))
}

// PixelsToPoints converts a pixel length at dpi to PDF points.
func PixelsToPoints(px, dpi int) float64 {
	return float64(px) / float64(dpi) * pointsPerInch
}
