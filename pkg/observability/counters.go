package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// CacheCounter is a CacheHooks implementation that counts events.
// It is safe for concurrent use.
type CacheCounter struct {
	hits, misses, sets atomic.Int64
	bytes              atomic.Int64
}

func (c *CacheCounter) OnCacheHit(context.Context, string)  { c.hits.Add(1) }
func (c *CacheCounter) OnCacheMiss(context.Context, string) { c.misses.Add(1) }
func (c *CacheCounter) OnCacheSet(_ context.Context, _ string, size int) {
	c.sets.Add(1)
	c.bytes.Add(int64(size))
}

// Snapshot returns the current counts.
func (c *CacheCounter) Snapshot() (hits, misses, sets int64) {
	return c.hits.Load(), c.misses.Load(), c.sets.Load()
}

// BytesWritten returns the total size of all cache writes.
func (c *CacheCounter) BytesWritten() int64 { return c.bytes.Load() }

// RasterCounter is a RasterHooks implementation that counts rasteriser
// calls and their total duration.
type RasterCounter struct {
	calls, failures atomic.Int64
	nanos           atomic.Int64
}

func (r *RasterCounter) OnRasterize(_ context.Context, _ string, _ int, d time.Duration, err error) {
	r.calls.Add(1)
	r.nanos.Add(int64(d))
	if err != nil {
		r.failures.Add(1)
	}
}

// Snapshot returns the number of calls, how many failed and their total time.
func (r *RasterCounter) Snapshot() (calls, failures int64, total time.Duration) {
	return r.calls.Load(), r.failures.Load(), time.Duration(r.nanos.Load())
}
