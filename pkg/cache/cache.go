// Package cache provides the content-addressed byte cache used to avoid
// rasterising the same badge twice.
//
// Rasterising a badge PDF with pdftoppm dominates the cost of both the
// scale and compose stages. Entries are keyed by the SHA-256 of the source
// bytes plus the rendering parameters (see [Keyer]), so an edited badge is
// a miss and an unchanged one is a hit, regardless of its path.
//
// # Backends
//
//   - [FileCache]: one file per entry under the user cache directory (CLI default)
//   - [RedisCache]: shared cache for teams printing from several machines
//   - [NullCache]: disables caching (--no-cache)
//
// # Usage
//
//	c, err := cache.NewFileCache(cache.DefaultDir())
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.RasterKey(cache.Hash(pdfBytes), cache.RasterKeyOpts{DPI: 300})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    // use cached PNG
//	}
//
// Cache failures are never fatal to a run: callers log them and fall back
// to doing the work.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// DefaultTTL is how long rasters are kept when no TTL is configured.
const DefaultTTL = 30 * 24 * time.Hour

// DefaultDir returns the directory FileCache uses by default:
// $XDG_CACHE_HOME/gafetes (or the platform equivalent).
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "gafetes")
}
