// Package badge renders one single-page PDF per attendee from a roster.
//
// Files are named with the asset codec, so the generated directory is
// directly consumable by the scaler and the manifest builder:
//
//	badges/001_director.pdf
//	badges/001_companion.pdf
//	badges/002_director.pdf
//
// Text is set in the PDF core fonts; names are translated from UTF-8 to
// cp1252 so accented Spanish names print correctly.
package badge

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/fsutil"
	"github.com/matzehuels/gafetes/pkg/observability"
	"github.com/matzehuels/gafetes/pkg/roster"
)

// DefaultTitle is printed in the header band of every badge.
const DefaultTitle = "Reunión Anual de Directores"

// Role labels printed under the header.
var roleLabels = map[asset.Role]string{
	asset.Director:  "DIRECTOR",
	asset.Companion: "ACOMPAÑANTE",
}

const (
	fontFamily  = "Helvetica"
	marginMM    = 6.0
	headerMM    = 22.0
	maxNamePt   = 34.0
	minNamePt   = 12.0
	maxNameRows = 3
	ptPerMM     = 72 / 25.4
)

// Generator writes badge PDFs into Dir.
type Generator struct {
	Dir    string
	Namer  asset.Namer
	Size   compose.BadgeSize // zero means compose.DefaultBadge
	Title  string            // zero means DefaultTitle
	Logger *log.Logger
}

// Generate writes a director badge for every record and a companion badge
// for every record with a companion. It returns the written paths in key
// order, director before companion.
func (g *Generator) Generate(ctx context.Context, records []roster.Record) (paths []string, err error) {
	logger := g.Logger
	if logger == nil {
		logger = log.Default()
	}
	size := g.Size
	if !size.Valid() {
		size = compose.DefaultBadge
	}
	title := g.Title
	if title == "" {
		title = DefaultTitle
	}

	if err := errors.ValidatePath(g.Dir); err != nil {
		return nil, err
	}
	if err := checkKeys(records); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Stages().OnStageStart(ctx, observability.StageGenerate, roster.ExpectedAssets(records))
	defer func() {
		observability.Stages().OnStageComplete(ctx, observability.StageGenerate, len(paths), time.Since(start), err)
	}()

	if err := fsutil.EnsureDir(g.Dir); err != nil {
		return nil, err
	}

	for _, rec := range records {
		for _, b := range badgesFor(rec) {
			if err := ctx.Err(); err != nil {
				return paths, err
			}
			name, err := g.Namer.Filename(rec.Key, b.role, ".pdf")
			if err != nil {
				return paths, err
			}
			data, err := render(size, title, b)
			if err != nil {
				return paths, errors.Wrap(errors.ErrCodeInternal, err, "render badge").
					WithAsset(int(rec.Key), b.role.String())
			}
			path := filepath.Join(g.Dir, name)
			if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
				return paths, fmt.Errorf("write %s: %w", path, err)
			}
			logger.Debug("badge written", "file", name, "name", b.name)
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func checkKeys(records []roster.Record) error {
	seen := make(map[asset.Key]bool, len(records))
	for _, r := range records {
		if !r.Key.Valid() {
			return errors.New(errors.ErrCodeInvalidRoster, "ordering key must be positive, got %d", r.Key).
				WithAsset(int(r.Key), "")
		}
		if seen[r.Key] {
			return errors.New(errors.ErrCodeInvalidRoster, "ordering key %d is used twice", r.Key).
				WithAsset(int(r.Key), "")
		}
		seen[r.Key] = true
	}
	return nil
}

// face is the printed content of one badge.
type face struct {
	key  asset.Key
	role asset.Role
	name string
	host string // director's name on a companion badge
	qr   string
}

func badgesFor(rec roster.Record) []face {
	faces := []face{{key: rec.Key, role: asset.Director, name: rec.FullName, qr: rec.QRPayload}}
	if rec.HasCompanion() {
		qr := rec.CompanionQR
		if qr == "" {
			qr = rec.QRPayload
		}
		faces = append(faces, face{
			key:  rec.Key,
			role: asset.Companion,
			name: rec.CompanionName,
			host: rec.FullName,
			qr:   qr,
		})
	}
	return faces
}

func render(size compose.BadgeSize, title string, f face) ([]byte, error) {
	w, h := size.WidthCm*10, size.HeightCm*10
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("gafetes", true)
	pdf.SetTitle(fmt.Sprintf("%03d %s", f.key, f.role), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inner := w - 2*marginMM

	pdf.SetLineWidth(0.4)
	pdf.SetDrawColor(40, 40, 40)
	pdf.Rect(2, 2, w-4, h-4, "D")

	pdf.SetFillColor(20, 52, 99)
	pdf.Rect(2, 2, w-4, headerMM, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(fontFamily, "B", 13)
	pdf.SetXY(marginMM, 2+4)
	pdf.MultiCell(inner, 6, tr(title), "", "C", false)

	pdf.SetTextColor(20, 52, 99)
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetXY(marginMM, headerMM+8)
	pdf.CellFormat(inner, 7, tr(roleLabels[f.role]), "", 1, "C", false, 0, "")

	name := tr(f.name)
	pt := fitName(pdf, name, inner)
	pdf.SetFont(fontFamily, "B", pt)
	lineH := pt / ptPerMM * 1.2
	rows := len(pdf.SplitLines([]byte(name), inner))
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginMM, h/2-float64(rows)*lineH/2)
	pdf.MultiCell(inner, lineH, name, "", "C", false)

	if f.host != "" {
		pdf.SetFont(fontFamily, "", 10)
		pdf.SetXY(marginMM, pdf.GetY()+3)
		pdf.MultiCell(inner, 5, tr("Acompañante de "+f.host), "", "C", false)
	}

	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetXY(marginMM, h-marginMM-24)
	pdf.CellFormat(inner, 9, fmt.Sprintf("No. %d", f.key), "", 1, "C", false, 0, "")

	if f.qr != "" {
		pdf.SetFont("Courier", "", 9)
		pdf.SetXY(marginMM, h-marginMM-12)
		pdf.CellFormat(inner, 6, tr(f.qr), "1", 1, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitName returns the largest font size at which every word of name fits
// the width and the name wraps to at most maxNameRows lines.
func fitName(pdf *gofpdf.Fpdf, name string, width float64) float64 {
	words := strings.Fields(name)
	for pt := maxNamePt; pt > minNamePt; pt -= 2 {
		pdf.SetFont(fontFamily, "B", pt)
		fits := true
		for _, w := range words {
			if pdf.GetStringWidth(w) > width {
				fits = false
				break
			}
		}
		if fits && len(pdf.SplitLines([]byte(name), width)) <= maxNameRows {
			return pt
		}
	}
	return minNamePt
}
