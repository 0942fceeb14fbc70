package scale

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/compose"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/manifest"
)

const testDPI = 40

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func write(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// pngLoader decodes everything as PNG and counts calls.
type pngLoader struct{ calls atomic.Int32 }

func (l *pngLoader) Load(ctx context.Context, path string, dpi int) (image.Image, error) {
	l.calls.Add(1)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open")
	}
	defer f.Close()
	return png.Decode(f)
}

func newScaler(l compose.ImageLoader) *Scaler {
	return &Scaler{DPI: testDPI, Workers: 2, Loader: l, Logger: log.New(&bytes.Buffer{})}
}

func TestScaleDir(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "scaled")
	img := encodePNG(t, 10, 16)
	write(t, src, "002_director.png", img)
	write(t, src, "001_companion.png", img)
	write(t, src, "001_director.png", img)
	write(t, src, "readme.txt", []byte("x"))
	write(t, src, "003_director.gif", []byte("GIF89a"))

	res, err := newScaler(&pngLoader{}).ScaleDir(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("ScaleDir: %v", err)
	}

	var got []string
	for _, o := range res.Outputs {
		got = append(got, filepath.Base(o.Path))
	}
	want := []string{"001_director_scaled.png", "001_companion_scaled.png", "002_director_scaled.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("Skipped = %d, want 2", len(res.Skipped))
	}

	wantLong := compose.DefaultBadge.LongPixels(testDPI)
	f, err := os.Open(filepath.Join(dst, "002_director_scaled.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Height != wantLong {
		t.Errorf("scaled height = %d, want %d", cfg.Height, wantLong)
	}
}

// TestScaledOutputFeedsManifest checks that scaled names still decode and
// pair up.
func TestScaledOutputFeedsManifest(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	img := encodePNG(t, 4, 6)
	for _, n := range []string{"001_director.png", "001_companion.png", "002_director.png"} {
		write(t, src, n, img)
	}
	if _, err := newScaler(&pngLoader{}).ScaleDir(context.Background(), src, dst); err != nil {
		t.Fatal(err)
	}
	m, _, err := manifest.Build(dst, manifest.BuildOptions{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Len() != 2 || !m.Pairs[0].HasCompanion() || m.Pairs[1].HasCompanion() {
		t.Errorf("manifest = %+v", m.Pairs)
	}
}

func TestScaleDirUsesCache(t *testing.T) {
	src := t.TempDir()
	write(t, src, "001_director.png", encodePNG(t, 4, 6))

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	l := &pngLoader{}
	s := newScaler(l)
	s.Cache = fc

	ctx := context.Background()
	first, err := s.ScaleDir(ctx, src, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ScaleDir(ctx, src, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits() != 0 || second.CacheHits() != 1 {
		t.Errorf("cache hits = %d, %d, want 0, 1", first.CacheHits(), second.CacheHits())
	}
	if n := l.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestScaleDirDuplicateOutput(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "out")
	img := encodePNG(t, 4, 6)
	write(t, src, "004_director.png", img)
	write(t, src, "004_director.jpg", img)

	_, err := newScaler(&pngLoader{}).ScaleDir(context.Background(), src, dst)
	if !errors.Is(err, errors.ErrCodeDuplicateRole) {
		t.Fatalf("error = %v, want DUPLICATE_ROLE", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("nothing should be written on conflict")
	}
}

func TestScaleDirErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := newScaler(nil).ScaleDir(ctx, dir, dir); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("same dir: %v", err)
	}
	if _, err := newScaler(nil).ScaleDir(ctx, filepath.Join(dir, "nope"), t.TempDir()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing src: %v", err)
	}
	s := newScaler(nil)
	s.DPI = errors.MaxDPI + 1
	if _, err := s.ScaleDir(ctx, dir, t.TempDir()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("dpi: %v", err)
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"badges/001_director.pdf": "001_director_scaled.png",
		"012_companion.png":       "012_companion_scaled.png",
	}
	for in, want := range tests {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
