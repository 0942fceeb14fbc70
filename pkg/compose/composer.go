// Package compose lays out manifest pairs onto print sheets and writes the
// final multi-page PDF.
//
// # Policy
//
// Composition is paired-per-sheet: every manifest pair becomes exactly one
// page. The director and companion badges sit side by side; if the sheet is
// too narrow for both they are stacked, and a director without companion is
// centred alone. Page i of the output is always pair i of the manifest.
//
// # Scaling
//
// Each badge is resized so its longer side is the badge's long side at the
// target DPI (pixels = inches x dpi) and placed at its physical size
// (points = pixels / dpi x 72), so the printed badge measures the same at
// any DPI.
//
// # Failure
//
// Every referenced asset is checked before any work starts. A missing file
// fails with MISSING_ASSET naming the key and role, and nothing is written;
// a document an earlier run left at the output path is removed.
// The document is built in memory, its page count is verified, and only
// then is it renamed into place.
package compose

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/fsutil"
	"github.com/matzehuels/gafetes/pkg/manifest"
	"github.com/matzehuels/gafetes/pkg/observability"
	"github.com/matzehuels/gafetes/pkg/raster"
)

// DefaultWorkers bounds parallel image loading.
const DefaultWorkers = 8

// DefaultGap is the space between two badges on a sheet, in points (1 cm).
const DefaultGap = 72 / cmPerInch

// ImageLoader loads and decodes one asset. PDFs are rendered at dpi.
type ImageLoader interface {
	Load(ctx context.Context, path string, dpi int) (image.Image, error)
}

// Composer turns a manifest into one PDF. The zero value composes tabloid
// sheets of default badges at DefaultDPI.
type Composer struct {
	Sheet   PaperSize
	Badge   BadgeSize
	DPI     int
	Gap     float64 // points between badges; 0 means DefaultGap, negative means none
	Workers int
	Loader  ImageLoader
	Logger  *log.Logger

	// OnSheet, when set, is called as each sheet's images are ready.
	// Calls are serialised and done increases by one each call.
	OnSheet func(done, total int)
}

// Placement is one badge on a sheet.
type Placement struct {
	Role     asset.Role
	Path     string
	Rect     Rect
	WidthPx  int
	HeightPx int
}

// Sheet is one output page.
type Sheet struct {
	Page       int // 1-based
	Key        asset.Key
	Placements []Placement
}

// Result describes a finished composition.
type Result struct {
	Path     string
	Pages    int
	Sheets   []Sheet
	Bytes    int
	Duration time.Duration
}

// prepared holds the encoded images for one sheet.
type prepared struct {
	sheet Sheet
	pngs  [][]byte
}

func (c *Composer) defaults() Composer {
	out := *c
	if !out.Sheet.Valid() {
		out.Sheet = DefaultPaper
	}
	if !out.Badge.Valid() {
		out.Badge = DefaultBadge
	}
	if out.DPI == 0 {
		out.DPI = DefaultDPI
	}
	if out.Gap == 0 {
		out.Gap = DefaultGap
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	if out.Loader == nil {
		out.Loader = raster.NewLoader(raster.LoaderOptions{Logger: out.Logger})
	}
	return out
}

// Compose writes one sheet per pair of m, in manifest order, to outPath.
func (c *Composer) Compose(ctx context.Context, m *manifest.Manifest, outPath string) (res *Result, err error) {
	cfg := c.defaults()
	start := time.Now()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := errors.ValidateDPI(cfg.DPI); err != nil {
		return nil, err
	}
	if err := errors.ValidateOutputPDF(outPath); err != nil {
		return nil, err
	}
	// A failed run must not leave an earlier document looking finished.
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(outPath); rmErr != nil && !os.IsNotExist(rmErr) {
			cfg.Logger.Warn("could not remove stale output", "file", outPath, "err", rmErr)
		}
	}()

	observability.Stages().OnStageStart(ctx, observability.StageCompose, m.Len())
	defer func() {
		pages := 0
		if res != nil {
			pages = res.Pages
		}
		observability.Stages().OnStageComplete(ctx, observability.StageCompose, pages, time.Since(start), err)
	}()

	if err := checkAssets(m); err != nil {
		return nil, err
	}

	sheets, err := cfg.prepare(ctx, m)
	if err != nil {
		return nil, err
	}

	data, err := cfg.render(sheets)
	if err != nil {
		return nil, err
	}

	pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "verify composed document")
	}
	if pages != m.Len() {
		return nil, errors.New(errors.ErrCodeInternal, "composed document has %d pages, want %d", pages, m.Len())
	}

	if err := fsutil.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", outPath, err)
	}

	res = &Result{
		Path:     outPath,
		Pages:    pages,
		Sheets:   make([]Sheet, len(sheets)),
		Bytes:    len(data),
		Duration: time.Since(start),
	}
	for i, p := range sheets {
		res.Sheets[i] = p.sheet
	}
	cfg.Logger.Debug("composed", "pages", pages, "bytes", len(data), "sheet", cfg.Sheet.Name, "dpi", cfg.DPI)
	return res, nil
}

// checkAssets stats every path in m and reports all missing ones at once.
func checkAssets(m *manifest.Manifest) error {
	var missing []error
	for _, p := range m.Pairs {
		for _, e := range p.Assets() {
			if _, err := os.Stat(e.Path); err != nil {
				missing = append(missing, missingAsset(p.Key, e, err))
			}
		}
	}
	return stderrors.Join(missing...)
}

func missingAsset(key asset.Key, e manifest.Entry, cause error) error {
	return errors.Wrap(errors.ErrCodeMissingAsset, cause, "%s is missing", e.Path).
		WithAsset(int(key), e.Role.String())
}

// prepare loads, scales and lays out every sheet in parallel. The result
// is indexed by manifest position.
func (c Composer) prepare(ctx context.Context, m *manifest.Manifest) ([]prepared, error) {
	out := make([]prepared, m.Len())
	longPx := c.Badge.LongPixels(c.DPI)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for i, pair := range m.Pairs {
		g.Go(func() error {
			p, err := c.prepareSheet(gctx, i, pair, longPx)
			if err != nil {
				return err
			}
			out[i] = p
			if c.OnSheet != nil {
				mu.Lock()
				done++
				c.OnSheet(done, len(out))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Composer) prepareSheet(ctx context.Context, i int, pair manifest.Pair, longPx int) (prepared, error) {
	entries := pair.Assets()
	p := prepared{sheet: Sheet{Page: i + 1, Key: pair.Key}}
	sizes := make([]Size, 0, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return p, err
		}
		img, err := c.Loader.Load(ctx, e.Path, c.DPI)
		if err != nil {
			if errors.Is(err, errors.ErrCodeFileNotFound) || os.IsNotExist(err) {
				return p, missingAsset(pair.Key, e, err)
			}
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return p, errors.Wrap(code, err, "load %s", e.Path).WithAsset(int(pair.Key), e.Role.String())
		}
		fitted := raster.FitLong(img, longPx)
		data, err := raster.EncodePNG(fitted)
		if err != nil {
			return p, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", e.Path)
		}
		b := fitted.Bounds()
		p.pngs = append(p.pngs, data)
		p.sheet.Placements = append(p.sheet.Placements, Placement{
			Role: e.Role, Path: e.Path, WidthPx: b.Dx(), HeightPx: b.Dy(),
		})
		sizes = append(sizes, Size{W: PixelsToPoints(b.Dx(), c.DPI), H: PixelsToPoints(b.Dy(), c.DPI)})
	}

	rects, err := Layout(c.Sheet, sizes, c.Gap)
	if err != nil {
		return p, err
	}
	for j := range rects {
		p.sheet.Placements[j].Rect = rects[j]
	}
	return p, nil
}

// render appends the sheets to a new document strictly in slice order.
func (c Composer) render(sheets []prepared) ([]byte, error) {
	// gofpdf swaps custom dimensions for "L", so landscape sheets are
	// passed as "P" with their real width and height.
	w, h := c.Sheet.Points()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("gafetes", true)
	pdf.SetTitle(fmt.Sprintf("gafetes: %d sheets", len(sheets)), true)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for _, s := range sheets {
		pdf.AddPage()
		for j, pl := range s.sheet.Placements {
			name := fmt.Sprintf("%d-%s", s.sheet.Key, pl.Role)
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(s.pngs[j]))
			pdf.ImageOptions(name, pl.Rect.X, pl.Rect.Y, pl.Rect.W, pl.Rect.H, false, opts, 0, "")
		}
		if err := pdf.Error(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render page %d", s.sheet.Page).
				WithAsset(int(s.sheet.Key), "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialise document")
	}
	return buf.Bytes(), nil
}
