// Package pipeline wires the badge stages into one run.
//
// The pipeline consists of four stages that communicate only through the
// filesystem:
//
//  1. Generate: render one PDF per attendee from the roster
//  2. Scale: fit every badge to the print size at the target DPI
//  3. Manifest: scan the scaled directory into the ordered manifest
//  4. Compose: lay out each pair on a sheet and write the final PDF
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	opts := pipeline.Options{DPI: 300, Sheet: "tabloid"}
//	runner, err := pipeline.NewRunner(ctx, opts, logger)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//	res, err := runner.Run(ctx, "roster.xlsx", "work", "gafetes.pdf")
//
// Run individual stages:
//
//	paths, records, err := runner.Generate(ctx, "roster.xlsx", "badges")
//	scaled, err := runner.Scale(ctx, "badges", "scaled")
//	m, report, err := runner.BuildManifest(ctx, "scaled", manifest.BuildOptions{Roster: records})
//	out, err := runner.Compose(ctx, m, "gafetes.pdf")
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config
// =============================================================================

const (
	// DefaultSheet is the named output sheet.
	DefaultSheet = "tabloid"

	// DefaultGapCm is the space between the two badges of a pair.
	DefaultGapCm = 1.0

	// DefaultWorkers bounds parallel scaling and composition.
	DefaultWorkers = compose.DefaultWorkers
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// ValidCacheBackends is the set of supported cache backends.
var ValidCacheBackends = map[string]bool{
	CacheFile:  true,
	CacheRedis: true,
	CacheNone:  true,
}

// Work directory layout used by Run.
const (
	BadgesDir    = "badges"
	ScaledDir    = "scaled"
	ManifestFile = "manifest.json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a print run. It is loaded from
// TOML (see LoadConfig) and overridden by CLI flags.
type Options struct {
	DPI   int    `json:"dpi,omitempty" toml:"dpi"`
	Sheet string `json:"sheet,omitempty" toml:"sheet"`

	// Custom sheet in inches; both must be set and override Sheet.
	SheetWidthIn  float64 `json:"sheet_width_in,omitempty" toml:"sheet_width_in"`
	SheetHeightIn float64 `json:"sheet_height_in,omitempty" toml:"sheet_height_in"`

	BadgeWidthCm  float64 `json:"badge_width_cm,omitempty" toml:"badge_width_cm"`
	BadgeHeightCm float64 `json:"badge_height_cm,omitempty" toml:"badge_height_cm"`
	GapCm         float64 `json:"gap_cm,omitempty" toml:"gap_cm"` // negative means no gap

	// KeyWidth fixes the zero-padded key width; 0 sizes it to the roster.
	KeyWidth int    `json:"key_width,omitempty" toml:"key_width"`
	Workers  int    `json:"workers,omitempty" toml:"workers"`
	Title    string `json:"title,omitempty" toml:"title"`

	Cache CacheOptions `json:"cache" toml:"cache"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// CacheOptions selects and configures the raster cache.
type CacheOptions struct {
	Backend       string   `json:"backend,omitempty" toml:"backend"`
	Dir           string   `json:"dir,omitempty" toml:"dir"`
	RedisAddr     string   `json:"redis_addr,omitempty" toml:"redis_addr"`
	RedisPassword string   `json:"-" toml:"redis_password"`
	RedisDB       int      `json:"redis_db,omitempty" toml:"redis_db"`
	Prefix        string   `json:"prefix,omitempty" toml:"prefix"`
	TTL           Duration `json:"ttl,omitempty" toml:"ttl"`
}

// Duration is a time.Duration that reads and writes as "720h" in config.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Stats contains run timing and size information.
type Stats struct {
	Attendees    int
	Badges       int
	Scaled       int
	Skipped      int
	CacheHits    int
	Pages        int
	GenerateTime time.Duration
	ScaleTime    time.Duration
	ManifestTime time.Duration
	ComposeTime  time.Duration
}

// Total is the sum of all stage durations.
func (s Stats) Total() time.Duration {
	return s.GenerateTime + s.ScaleTime + s.ManifestTime + s.ComposeTime
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills every zero field. It is idempotent.
func (o *Options) SetDefaults() {
	if o.DPI == 0 {
		o.DPI = compose.DefaultDPI
	}
	if o.Sheet == "" {
		o.Sheet = DefaultSheet
	}
	if o.BadgeWidthCm == 0 && o.BadgeHeightCm == 0 {
		o.BadgeWidthCm = compose.DefaultBadge.WidthCm
		o.BadgeHeightCm = compose.DefaultBadge.HeightCm
	}
	if o.GapCm == 0 {
		o.GapCm = DefaultGapCm
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Cache.Backend == "" {
		o.Cache.Backend = CacheFile
	}
	if o.Cache.Backend == CacheFile && o.Cache.Dir == "" {
		o.Cache.Dir = cache.DefaultDir()
	}
	if o.Cache.TTL == 0 {
		o.Cache.TTL = Duration(cache.DefaultTTL)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults are applied. Errors carry
// INVALID_CONFIG, naming the offending field.
func (o *Options) Validate() error {
	if err := errors.ValidateDPI(o.DPI); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "dpi")
	}
	if _, err := o.Paper(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "sheet")
	}
	if !o.Badge().Valid() {
		return errors.New(errors.ErrCodeInvalidConfig,
			"badge size must be positive, got %gx%g cm", o.BadgeWidthCm, o.BadgeHeightCm)
	}
	if o.KeyWidth < 0 || o.KeyWidth > 9 {
		return errors.New(errors.ErrCodeInvalidConfig, "key_width must be between 0 and 9, got %d", o.KeyWidth)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must not be negative, got %d", o.Workers)
	}
	if !ValidCacheBackends[o.Cache.Backend] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend %q (must be one of: file, redis, none)", o.Cache.Backend)
	}
	if o.Cache.Backend == CacheRedis && o.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_addr")
	}
	if o.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	return nil
}

// Paper resolves the output sheet. A custom size wins over Sheet.
func (o *Options) Paper() (compose.PaperSize, error) {
	if o.SheetWidthIn != 0 || o.SheetHeightIn != 0 {
		p := compose.PaperSize{Name: "custom", WidthIn: o.SheetWidthIn, HeightIn: o.SheetHeightIn}
		if !p.Valid() {
			return p, errors.New(errors.ErrCodeInvalidInput,
				"custom sheet needs both dimensions, got %gx%g in", o.SheetWidthIn, o.SheetHeightIn)
		}
		return p, nil
	}
	return compose.LookupPaper(o.Sheet)
}

// Badge returns the configured badge size.
func (o *Options) Badge() compose.BadgeSize {
	return compose.BadgeSize{WidthCm: o.BadgeWidthCm, HeightCm: o.BadgeHeightCm}
}

// GapPoints converts GapCm to points. Negative stays negative.
func (o *Options) GapPoints() float64 {
	return o.GapCm * 72 / 2.54
}

// Namer returns the key codec for a roster whose largest key is maxKey.
func (o *Options) Namer(maxKey asset.Key) asset.Namer {
	if o.KeyWidth > 0 {
		return asset.Namer{Width: o.KeyWidth}
	}
	return asset.NamerFor(int(maxKey))
}

// CacheTTL returns the cache entry lifetime.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.Cache.TTL)
}

// String renders a one-line summary for debug logs.
func (o *Options) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dpi=%d sheet=%s badge=%gx%gcm gap=%gcm workers=%d cache=%s",
		o.DPI, o.Sheet, o.BadgeWidthCm, o.BadgeHeightCm, o.GapCm, o.Workers, o.Cache.Backend)
	if o.SheetWidthIn != 0 {
		fmt.Fprintf(&b, " custom=%gx%gin", o.SheetWidthIn, o.SheetHeightIn)
	}
	return b.String()
}
