package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gafetes/pkg/badge"
	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/fsutil"
	"github.com/matzehuels/gafetes/pkg/manifest"
	"github.com/matzehuels/gafetes/pkg/observability"
	"github.com/matzehuels/gafetes/pkg/raster"
	"github.com/matzehuels/gafetes/pkg/roster"
	"github.com/matzehuels/gafetes/pkg/scale"
)

// Runner executes pipeline stages with shared options, cache and loader.
//
// The Runner keeps no results between calls. Multiple goroutines can use
// the same Runner for different directories.
type Runner struct {
	Options Options
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	// Rasterizer overrides pdftoppm; nil uses the default.
	Rasterizer raster.Rasterizer

	// OnSheet is passed to the composer for progress reporting.
	OnSheet func(done, total int)

	loader compose.ImageLoader
}

// Result contains the outputs of a full Run.
type Result struct {
	Records  []roster.Record
	Badges   []string
	Scaled   *scale.Result
	Manifest *manifest.Manifest
	Report   *manifest.Report
	Composed *compose.Result
	Stats    Stats
}

// NewRunner validates opts and opens the configured cache backend.
func NewRunner(ctx context.Context, opts Options, logger *log.Logger) (*Runner, error) {
	if logger != nil {
		opts.Logger = logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c, err := OpenCache(ctx, opts.Cache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if opts.Cache.Prefix != "" && opts.Cache.Backend != CacheRedis {
		keyer = cache.NewScopedKeyer(keyer, opts.Cache.Prefix)
	}
	opts.Logger.Debug("runner ready", "options", opts.String())
	return &Runner{Options: opts, Cache: c, Keyer: keyer, Logger: opts.Logger}, nil
}

// OpenCache returns the cache backend named by opts.Backend.
func OpenCache(ctx context.Context, opts CacheOptions) (cache.Cache, error) {
	switch opts.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return c, nil
	case CacheFile, "":
		dir := opts.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend %q", opts.Backend)
}

func (r *Runner) imageLoader() compose.ImageLoader {
	if r.loader == nil {
		r.loader = raster.NewLoader(raster.LoaderOptions{
			Rasterizer: r.Rasterizer,
			Cache:      r.Cache,
			Keyer:      r.Keyer,
			TTL:        r.Options.CacheTTL(),
			Logger:     r.Logger,
		})
	}
	return r.loader
}

// Generate reads the roster at rosterPath and writes one badge PDF per
// attendee into dir.
func (r *Runner) Generate(ctx context.Context, rosterPath, dir string) ([]string, []roster.Record, error) {
	records, err := roster.ReadFile(rosterPath)
	if err != nil {
		return nil, nil, err
	}
	g := &badge.Generator{
		Dir:    dir,
		Namer:  r.Options.Namer(roster.MaxKey(records)),
		Size:   r.Options.Badge(),
		Title:  r.Options.Title,
		Logger: r.Logger,
	}
	paths, err := g.Generate(ctx, records)
	return paths, records, err
}

// Scale fits every badge in src into dst.
func (r *Runner) Scale(ctx context.Context, src, dst string) (*scale.Result, error) {
	s := &scale.Scaler{
		Badge:   r.Options.Badge(),
		DPI:     r.Options.DPI,
		Workers: r.Options.Workers,
		Loader:  r.imageLoader(),
		Cache:   r.Cache,
		Keyer:   r.Keyer,
		TTL:     r.Options.CacheTTL(),
		Logger:  r.Logger,
	}
	return s.ScaleDir(ctx, src, dst)
}

// BuildManifest scans dir. The report is logged before returning.
func (r *Runner) BuildManifest(ctx context.Context, dir string, opts manifest.BuildOptions) (*manifest.Manifest, *manifest.Report, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	start := time.Now()
	observability.Stages().OnStageStart(ctx, observability.StageManifest, opts.ExpectedAssets)
	m, report, err := manifest.Build(dir, opts)
	produced := 0
	if m != nil {
		produced = m.Len()
	}
	observability.Stages().OnStageComplete(ctx, observability.StageManifest, produced, time.Since(start), err)
	if report != nil {
		report.Log(r.Logger)
	}
	return m, report, err
}

// Compose writes m to outPath, one sheet per pair.
func (r *Runner) Compose(ctx context.Context, m *manifest.Manifest, outPath string) (*compose.Result, error) {
	paper, err := r.Options.Paper()
	if err != nil {
		return nil, err
	}
	c := &compose.Composer{
		Sheet:   paper,
		Badge:   r.Options.Badge(),
		DPI:     r.Options.DPI,
		Gap:     r.Options.GapPoints(),
		Workers: r.Options.Workers,
		Loader:  r.imageLoader(),
		Logger:  r.Logger,
		OnSheet: r.OnSheet,
	}
	return c.Compose(ctx, m, outPath)
}

// Run executes all four stages. Intermediate artifacts go to workDir:
//
//	workDir/badges/        generated PDFs
//	workDir/scaled/        fitted PNGs
//	workDir/manifest.json  the ordered manifest
//
// The roster is fed into the manifest build so count mismatches and
// incomplete pairs are reported. The stage directories and manifest are
// emptied first, so a reused workDir never carries badges of attendees
// from an earlier roster into the print. If any stage fails, outPath does
// not exist afterwards.
func (r *Runner) Run(ctx context.Context, rosterPath, workDir, outPath string) (res *Result, err error) {
	if err := errors.ValidateOutputPDF(outPath); err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(outPath); rmErr != nil && !os.IsNotExist(rmErr) {
			r.Logger.Warn("could not remove stale output", "file", outPath, "err", rmErr)
		}
	}()
	if err := resetWorkDir(workDir); err != nil {
		return nil, err
	}
	badgesDir := filepath.Join(workDir, BadgesDir)
	scaledDir := filepath.Join(workDir, ScaledDir)
	res = &Result{}

	// Stage 1: Generate
	start := time.Now()
	paths, records, err := r.Generate(ctx, rosterPath, badgesDir)
	if err != nil {
		return res, fmt.Errorf("generate: %w", err)
	}
	res.Records, res.Badges = records, paths
	res.Stats.Attendees = len(records)
	res.Stats.Badges = len(paths)
	res.Stats.GenerateTime = time.Since(start)
	r.Logger.Info("generated badges", "attendees", len(records), "files", len(paths), "duration", res.Stats.GenerateTime)

	// Stage 2: Scale
	start = time.Now()
	scaled, err := r.Scale(ctx, badgesDir, scaledDir)
	if err != nil {
		return res, fmt.Errorf("scale: %w", err)
	}
	res.Scaled = scaled
	res.Stats.Scaled = len(scaled.Outputs)
	res.Stats.Skipped = len(scaled.Skipped)
	res.Stats.CacheHits = scaled.CacheHits()
	res.Stats.ScaleTime = time.Since(start)
	r.Logger.Info("scaled badges", "files", len(scaled.Outputs), "cached", scaled.CacheHits(), "duration", res.Stats.ScaleTime)

	// Stage 3: Manifest
	start = time.Now()
	m, report, err := r.BuildManifest(ctx, scaledDir, manifest.BuildOptions{Roster: records})
	res.Report = report
	if err != nil {
		return res, fmt.Errorf("manifest: %w", err)
	}
	if err := manifest.WriteFile(filepath.Join(workDir, ManifestFile), m); err != nil {
		return res, fmt.Errorf("manifest: %w", err)
	}
	res.Manifest = m
	res.Stats.ManifestTime = time.Since(start)
	r.Logger.Info("built manifest", "pairs", m.Len(), "companions", m.CompanionCount(), "duration", res.Stats.ManifestTime)

	// Stage 4: Compose
	start = time.Now()
	composed, err := r.Compose(ctx, m, outPath)
	if err != nil {
		return res, fmt.Errorf("compose: %w", err)
	}
	res.Composed = composed
	res.Stats.Pages = composed.Pages
	res.Stats.ComposeTime = time.Since(start)
	r.Logger.Info("composed sheets", "pages", composed.Pages, "file", outPath, "duration", res.Stats.ComposeTime)

	return res, nil
}

// resetWorkDir removes what an earlier Run left in workDir's stage
// directories and manifest. Other files in workDir are left alone.
func resetWorkDir(workDir string) error {
	if err := fsutil.EnsureDir(workDir); err != nil {
		return err
	}
	for _, name := range []string{BadgesDir, ScaledDir, ManifestFile} {
		if err := os.RemoveAll(filepath.Join(workDir, name)); err != nil {
			return fmt.Errorf("reset work directory: %w", err)
		}
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
