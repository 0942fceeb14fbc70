// Package scale fits generated badges to the print size.
//
// Every asset in the source directory whose name decodes is rendered at
// the target DPI, resized so its long side matches the badge's long side,
// and written as PNG to the destination directory. The encoded
// "<key>_<role>" segment is kept and a suffix is appended:
//
//	badges/007_director.pdf  ->  scaled/007_director_scaled.png
//
// Output is 1:1 with recognised input; the manifest builder relies on that
// to detect missing badges.
package scale

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/fsutil"
	"github.com/matzehuels/gafetes/pkg/observability"
	"github.com/matzehuels/gafetes/pkg/raster"
)

// Suffix is appended to the stem of every scaled asset.
const Suffix = "_scaled"

// Scaler fits a directory of badge assets to the badge size.
type Scaler struct {
	Badge   compose.BadgeSize
	DPI     int
	Workers int
	Loader  compose.ImageLoader

	// Cache holds fitted PNGs keyed by source content; nil disables it.
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// Output is one scaled asset.
type Output struct {
	Name   asset.Name
	Source string
	Path   string
	Cached bool
}

// Skipped is a source entry that was not scaled.
type Skipped struct {
	Name string
	Err  error
}

// Result lists what a ScaleDir call produced, sorted by key then role.
type Result struct {
	Outputs  []Output
	Skipped  []Skipped
	Duration time.Duration
}

// CacheHits counts outputs served from the cache.
func (r *Result) CacheHits() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Cached {
			n++
		}
	}
	return n
}

// OutputName returns the scaled file name for a source path.
func OutputName(src string) string {
	return asset.Stem(src) + Suffix + ".png"
}

func (s *Scaler) defaults() Scaler {
	out := *s
	if !out.Badge.Valid() {
		out.Badge = compose.DefaultBadge
	}
	if out.DPI == 0 {
		out.DPI = compose.DefaultDPI
	}
	if out.Workers <= 0 {
		out.Workers = compose.DefaultWorkers
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	if out.Loader == nil {
		out.Loader = raster.NewLoader(raster.LoaderOptions{Cache: out.Cache, Keyer: out.Keyer, Logger: out.Logger})
	}
	if out.Cache == nil {
		out.Cache = cache.NewNullCache()
	}
	if out.Keyer == nil {
		out.Keyer = cache.NewDefaultKeyer()
	}
	if out.TTL == 0 {
		out.TTL = cache.DefaultTTL
	}
	return out
}

type job struct {
	name asset.Name
	src  string
	dst  string
}

// ScaleDir scales every recognised asset in src into dst, creating dst if
// needed. Unrecognised names and unsupported types are skipped and listed
// in the result. Two sources that would produce the same output fail with
// DUPLICATE_ROLE before anything is written.
func (s *Scaler) ScaleDir(ctx context.Context, src, dst string) (res *Result, err error) {
	cfg := s.defaults()
	start := time.Now()

	for _, p := range []string{src, dst} {
		if err := errors.ValidatePath(p); err != nil {
			return nil, err
		}
	}
	if err := errors.ValidateDPI(cfg.DPI); err != nil {
		return nil, err
	}
	if same, _ := samePath(src, dst); same {
		return nil, errors.New(errors.ErrCodeInvalidInput, "source and destination must differ (%s)", src)
	}

	jobs, skipped, err := plan(src, dst)
	if err != nil {
		return nil, err
	}

	observability.Stages().OnStageStart(ctx, observability.StageScale, len(jobs))
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Outputs)
		}
		observability.Stages().OnStageComplete(ctx, observability.StageScale, n, time.Since(start), err)
	}()

	if err := fsutil.EnsureDir(dst); err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}

	outputs := make([]Output, len(jobs))
	var hits atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			cached, err := cfg.scaleOne(gctx, j)
			if err != nil {
				return err
			}
			if cached {
				hits.Add(1)
			}
			outputs[i] = Output{Name: j.name, Source: j.src, Path: j.dst, Cached: cached}
			cfg.Logger.Debug("scaled", "file", filepath.Base(j.dst), "cached", cached)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, sk := range skipped {
		cfg.Logger.Warn("skipped", "file", sk.Name, "reason", errors.UserMessage(sk.Err))
	}
	cfg.Logger.Debug("scale complete", "scaled", len(outputs), "cached", hits.Load(), "skipped", len(skipped))
	return &Result{Outputs: outputs, Skipped: skipped, Duration: time.Since(start)}, nil
}

// plan decodes every entry of src and maps it to its output path.
func plan(src, dst string) ([]job, []Skipped, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "badge directory %s not found", src)
		}
		return nil, nil, fmt.Errorf("read %s: %w", src, err)
	}

	var (
		jobs    []job
		skipped []Skipped
		claimed = make(map[string]string)
		dups    []error
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		a, err := asset.Decode(name)
		if err != nil {
			skipped = append(skipped, Skipped{Name: name, Err: err})
			continue
		}
		if !raster.Supported(name) {
			skipped = append(skipped, Skipped{Name: name,
				Err: errors.New(errors.ErrCodeUnsupported, "unsupported type %q", filepath.Ext(name))})
			continue
		}
		out := OutputName(name)
		if prev, ok := claimed[out]; ok {
			dups = append(dups, errors.New(errors.ErrCodeDuplicateRole,
				"%s and %s both scale to %s", prev, name, out).WithAsset(int(a.Key), a.Role.String()))
			continue
		}
		claimed[out] = name
		jobs = append(jobs, job{name: a, src: filepath.Join(src, name), dst: filepath.Join(dst, out)})
	}
	if len(dups) > 0 {
		return nil, skipped, stderrors.Join(dups...)
	}

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].name.Key != jobs[k].name.Key {
			return jobs[i].name.Key < jobs[k].name.Key
		}
		return jobs[i].name.Role < jobs[k].name.Role
	})
	return jobs, skipped, nil
}

// scaleOne writes j.dst and reports whether the fitted image came from the cache.
func (s Scaler) scaleOne(ctx context.Context, j job) (bool, error) {
	data, err := os.ReadFile(j.src)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", j.src).
			WithAsset(int(j.name.Key), j.name.Role.String())
	}
	longPx := s.Badge.LongPixels(s.DPI)
	key := s.Keyer.FitKey(cache.Hash(data), cache.FitKeyOpts{WidthPx: longPx, HeightPx: longPx})

	png, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.Logger.Warn("scale cache read failed", "file", filepath.Base(j.src), "error", err)
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, "fit")
	} else {
		observability.Cache().OnCacheMiss(ctx, "fit")
		img, err := s.Loader.Load(ctx, j.src, s.DPI)
		if err != nil {
			return false, errors.Wrap(codeOf(err), err, "load %s", filepath.Base(j.src)).
				WithAsset(int(j.name.Key), j.name.Role.String())
		}
		png, err = raster.EncodePNG(raster.FitLong(img, longPx))
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", filepath.Base(j.dst))
		}
		if err := s.Cache.Set(ctx, key, png, s.TTL); err != nil {
			s.Logger.Warn("scale cache write failed", "file", filepath.Base(j.src), "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "fit", len(png))
		}
	}

	if err := fsutil.WriteFileAtomic(j.dst, png, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", j.dst, err)
	}
	return ok, nil
}

func codeOf(err error) errors.Code {
	if c := errors.GetCode(err); c != "" {
		return c
	}
	return errors.ErrCodeInternal
}

func samePath(a, b string) (bool, error) {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return aa == bb, nil
}
