// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through the registered hooks
// without depending on any particular backend. Defaults are no-ops; the
// CLI registers counters that feed its end-of-run summary.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStageHooks(&myStageHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Stages().OnStageStart(ctx, observability.StageCompose, len(m.Pairs))
//	// ... compose ...
//	observability.Stages().OnStageComplete(ctx, observability.StageCompose, pages, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a pipeline stage.
type Stage string

// Pipeline stages, in run order.
const (
	StageGenerate Stage = "generate"
	StageScale    Stage = "scale"
	StageManifest Stage = "manifest"
	StageCompose  Stage = "compose"
)

// =============================================================================
// Stage Hooks
// =============================================================================

// StageHooks receives events from the pipeline stages.
type StageHooks interface {
	// OnStageStart is called before a stage processes its items.
	OnStageStart(ctx context.Context, stage Stage, items int)

	// OnStageComplete is called when a stage returns, with the number of
	// items it produced.
	OnStageComplete(ctx context.Context, stage Stage, produced int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Raster Hooks
// =============================================================================

// RasterHooks receives events from external rasteriser invocations.
type RasterHooks interface {
	// OnRasterize records one page rendered by the external tool.
	OnRasterize(ctx context.Context, path string, dpi int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStageHooks is a no-op implementation of StageHooks.
type NoopStageHooks struct{}

func (NoopStageHooks) OnStageStart(context.Context, Stage, int)                          {}
func (NoopStageHooks) OnStageComplete(context.Context, Stage, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRasterHooks is a no-op implementation of RasterHooks.
type NoopRasterHooks struct{}

func (NoopRasterHooks) OnRasterize(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	stageHooks  StageHooks  = NoopStageHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	rasterHooks RasterHooks = NoopRasterHooks{}
	hooksMu     sync.RWMutex
)

// SetStageHooks registers custom stage hooks.
// This should be called once at application startup before any stage runs.
func SetStageHooks(h StageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		stageHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRasterHooks registers custom rasteriser hooks.
func SetRasterHooks(h RasterHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		rasterHooks = h
	}
}

// Stages returns the registered stage hooks.
func Stages() StageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return stageHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Raster returns the registered rasteriser hooks.
func Raster() RasterHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return rasterHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	stageHooks = NoopStageHooks{}
	cacheHooks = NoopCacheHooks{}
	rasterHooks = NoopRasterHooks{}
}
