package cache

import (
	"context"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/gafetes/pkg/fsutil"
)

// entryExt marks files owned by FileCache; Clear removes nothing else.
const entryExt = ".entry"

// headerLen is the size of the expiry header preceding each entry's data.
const headerLen = 8

// FileCache implements a file-based cache for CLI usage.
// Each entry is one file: an 8-byte big-endian expiry (Unix nanoseconds,
// zero for none) followed by the raw value.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if len(raw) < headerLen {
		// Truncated entry - treat as miss
		_ = os.Remove(path)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(raw[:headerLen])); exp != 0 && c.now().UnixNano() > exp {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return raw[headerLen:], true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	buf := make([]byte, headerLen+len(data))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf[:headerLen], uint64(c.now().Add(ttl).UnixNano()))
	}
	copy(buf[headerLen:], data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf, 0o644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry, leaving the root directory in place.
func (c *FileCache) Clear(ctx context.Context) error {
	return c.walk(func(path string, _ fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return os.Remove(path)
	})
}

// Stats returns the number of entries and their total size on disk.
func (c *FileCache) Stats() (entries int, size int64, err error) {
	err = c.walk(func(_ string, info fs.FileInfo) error {
		entries++
		size += info.Size()
		return nil
	})
	return entries, size, err
}

func (c *FileCache) walk(fn func(path string, info fs.FileInfo) error) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, entryExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(path, info)
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path.
// The first two hash characters name a subdirectory, keeping directories small.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+entryExt)
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)
