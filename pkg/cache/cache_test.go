package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	png := []byte("\x89PNG\r\n\x1a\nfake")
	if err := c.Set(ctx, "raster:a", png, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "raster:a")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if string(got) != string(png) {
		t.Errorf("Get = %q, want %q", got, png)
	}

	if err := c.Delete(ctx, "raster:a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "raster:a"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "raster:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("fresh entry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if n, _, _ := c.Stats(); n != 0 {
		t.Errorf("expired entry should be removed, %d left", n)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path("k")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("truncated entry: hit %v, err %v, want miss", hit, err)
	}
}

func TestFileCacheClearAndStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte("12345"), 0); err != nil {
			t.Fatal(err)
		}
	}
	// Files the cache does not own survive Clear.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, size, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || size != 3*(headerLen+5) {
		t.Errorf("Stats = %d entries, %d bytes; want 3, %d", n, size, 3*(headerLen+5))
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _, _ := c.Stats(); n != 0 {
		t.Errorf("entries after Clear = %d, want 0", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Errorf("foreign file removed by Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	src := Hash([]byte("badge"))

	r300 := k.RasterKey(src, RasterKeyOpts{DPI: 300})
	r600 := k.RasterKey(src, RasterKeyOpts{DPI: 600})
	if r300 == r600 {
		t.Error("different DPI should produce different raster keys")
	}
	if !strings.HasPrefix(r300, "raster:") {
		t.Errorf("RasterKey = %q, want raster: prefix", r300)
	}
	if r300 != k.RasterKey(src, RasterKeyOpts{DPI: 300}) {
		t.Error("RasterKey should be deterministic")
	}

	f1 := k.FitKey(src, FitKeyOpts{WidthPx: 1063, HeightPx: 1713})
	f2 := k.FitKey(src, FitKeyOpts{WidthPx: 2126, HeightPx: 3425})
	if f1 == f2 || f1 == r300 {
		t.Error("fit keys should differ by size and from raster keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	src := Hash([]byte("badge"))
	scoped := NewScopedKeyer(nil, "congreso:")
	plain := NewDefaultKeyer()

	got := scoped.RasterKey(src, RasterKeyOpts{DPI: 300})
	want := "congreso:" + plain.RasterKey(src, RasterKeyOpts{DPI: 300})
	if got != want {
		t.Errorf("RasterKey = %q, want %q", got, want)
	}
	if !strings.HasPrefix(scoped.FitKey(src, FitKeyOpts{}), "congreso:fit:") {
		t.Error("FitKey should carry the scope prefix")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should still match ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrClosed) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestBackoff(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	ctx := context.Background()

	calls := 0
	if err := b.Do(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	err := b.Do(ctx, func() error { calls++; return ErrClosed })
	if err != ErrClosed || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = b.Do(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err %v, calls %d", err, calls)
	}

	calls = 0
	err = b.Do(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestBackoffContextCancel(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

// TestRedisCache runs against a live server when GAFETES_TEST_REDIS is set,
// e.g. GAFETES_TEST_REDIS=localhost:6379.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GAFETES_TEST_REDIS")
	if addr == "" {
		t.Skip("GAFETES_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "gafetes-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(got) != "v" {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Clear")
	}
}

func TestRedisCacheRequiresAddr(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{}); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestBackoffSingleAttempt(t *testing.T) {
	calls := 0
	err := Backoff{}.Do(context.Background(), func() error { calls++; return Retryable(ErrNetwork) })
	if !IsRetryable(err) || calls != 1 {
		t.Errorf("zero Backoff: err %v, calls %d, want one attempt", err, calls)
	}
}
