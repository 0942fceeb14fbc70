package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Cache keys start from the content
// hash of the source, so a renamed or touched file still hits.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey renders "kind:<sha256 of the JSON-encoded parts>".
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Keyer derives cache keys from content hashes and rendering parameters.
type Keyer interface {
	// RasterKey identifies the PNG rendering of one page of a source file.
	RasterKey(sourceHash string, opts RasterKeyOpts) string

	// FitKey identifies a source image resized to a badge box.
	FitKey(sourceHash string, opts FitKeyOpts) string
}

// RasterKeyOpts are the parameters that change a rasterised page.
type RasterKeyOpts struct {
	DPI  int `json:"dpi"`
	Page int `json:"page,omitempty"`
}

// FitKeyOpts are the parameters that change a fitted image.
type FitKeyOpts struct {
	WidthPx  int `json:"w"`
	HeightPx int `json:"h"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RasterKey implements Keyer.
func (DefaultKeyer) RasterKey(sourceHash string, opts RasterKeyOpts) string {
	return hashKey("raster", sourceHash, opts)
}

// FitKey implements Keyer.
func (DefaultKeyer) FitKey(sourceHash string, opts FitKeyOpts) string {
	return hashKey("fit", sourceHash, opts)
}

// ScopedKeyer prefixes every key, so several events can share one redis
// without seeing each other's entries and a single event can be cleared.
//
//	keyer := cache.NewScopedKeyer(nil, "congreso-2026:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RasterKey implements Keyer.
func (k *ScopedKeyer) RasterKey(sourceHash string, opts RasterKeyOpts) string {
	return k.prefix + k.inner.RasterKey(sourceHash, opts)
}

// FitKey implements Keyer.
func (k *ScopedKeyer) FitKey(sourceHash string, opts FitKeyOpts) string {
	return k.prefix + k.inner.FitKey(sourceHash, opts)
}
