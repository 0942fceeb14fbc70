package cache

import (
	"context"
	"time"
)

// NullCache stores nothing; every Get is a miss. It backs --no-cache and
// the "none" backend so callers never branch on a nil cache.
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Clear(context.Context) error { return nil }
func (*NullCache) Close() error { return nil }

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
