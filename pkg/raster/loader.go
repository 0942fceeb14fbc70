package raster

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/observability"
)

// Supported reports whether path has an extension the loader can read.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// LoaderOptions configures a Loader. The zero value rasterises with
// pdftoppm and caches nothing.
type LoaderOptions struct {
	Rasterizer Rasterizer
	Cache      cache.Cache
	Keyer      cache.Keyer
	TTL        time.Duration
	Logger     *log.Logger
}

// Loader reads badge assets as images. It is safe for concurrent use
// when its Rasterizer and Cache are.
type Loader struct {
	rasterizer Rasterizer
	cache      cache.Cache
	keyer      cache.Keyer
	ttl        time.Duration
	logger     *log.Logger
}

// NewLoader returns a Loader with defaults filled in.
func NewLoader(opts LoaderOptions) *Loader {
	l := &Loader{
		rasterizer: opts.Rasterizer,
		cache:      opts.Cache,
		keyer:      opts.Keyer,
		ttl:        opts.TTL,
		logger:     opts.Logger,
	}
	if l.rasterizer == nil {
		l.rasterizer = Pdftoppm{}
	}
	if l.cache == nil {
		l.cache = cache.NewNullCache()
	}
	if l.keyer == nil {
		l.keyer = cache.NewDefaultKeyer()
	}
	if l.ttl == 0 {
		l.ttl = cache.DefaultTTL
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	return l
}

// Load decodes the asset at path. PDFs are rendered at dpi; raster images
// are returned at their native resolution. A missing file fails with
// FILE_NOT_FOUND.
func (l *Loader) Load(ctx context.Context, path string, dpi int) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".jpg", ".jpeg":
		return decode(path, data)
	case ".pdf":
		png, err := l.rasterize(ctx, path, data, dpi)
		if err != nil {
			return nil, err
		}
		return decode(path, png)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "%s: unsupported asset type %q", path, ext)
	}
}

func (l *Loader) rasterize(ctx context.Context, path string, data []byte, dpi int) ([]byte, error) {
	key := l.keyer.RasterKey(cache.Hash(data), cache.RasterKeyOpts{DPI: dpi, Page: 1})

	if png, ok, err := l.cache.Get(ctx, key); err != nil {
		l.logger.Warn("raster cache read failed", "file", filepath.Base(path), "error", err)
	} else if ok {
		observability.Cache().OnCacheHit(ctx, "raster")
		return png, nil
	}
	observability.Cache().OnCacheMiss(ctx, "raster")

	if n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration()); err == nil && n > 1 {
		l.logger.Warn("badge has several pages, using the first", "file", filepath.Base(path), "pages", n)
	}

	png, err := l.rasterizer.Rasterize(ctx, path, dpi)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, key, png, l.ttl); err != nil {
		l.logger.Warn("raster cache write failed", "file", filepath.Base(path), "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "raster", len(png))
	}
	return png, nil
}

func decode(path string, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterizeFailed, err, "decode %s", path)
	}
	return img, nil
}
