package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bianoble/modsync/internal/hashing"
)

// Cache stores downloaded files addressed by a content digest. Entries
// live at objects/<algo>/<first two hex chars>/<digest> and are verified
// on every read.
type Cache struct {
	dir string
}

// New creates a Cache at the given directory, creating it if needed.
func New(dir string) (*Cache, error) {
	objDir := filepath.Join(dir, "objects")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", objDir, err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns XDG_CACHE_HOME/modsync, falling back to ~/.cache/modsync.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "modsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "modsync-cache")
		}
		return filepath.Join("/tmp", "modsync-cache")
	}
	return filepath.Join(home, ".cache", "modsync")
}

// Get returns the cached content for the digest. A missing or corrupt
// entry reports false; corrupt entries are removed.
func (c *Cache) Get(algo, digest string) ([]byte, bool, error) {
	path, err := c.objectPath(algo, digest)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s:%s: %w", algo, digest, err)
	}

	if actual := hashing.MustSum(algo, data); !strings.EqualFold(actual, digest) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Lookup tries each digest in hashes and returns the first hit.
func (c *Cache) Lookup(hashes map[string]string) ([]byte, bool) {
	for algo, digest := range hashes {
		if !hashing.Supported(algo) {
			continue
		}
		if data, ok, err := c.Get(algo, digest); err == nil && ok {
			return data, true
		}
	}
	return nil, false
}

// Put stores content under its digest after checking that it matches.
// Storing an existing entry is a no-op.
func (c *Cache) Put(algo, digest string, content []byte) error {
	path, err := c.objectPath(algo, digest)
	if err != nil {
		return err
	}
	if actual := hashing.MustSum(algo, content); !strings.EqualFold(actual, digest) {
		return fmt.Errorf("cache put: content %s %s does not match declared digest %s", algo, actual, digest)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming cache temp file: %w", err)
	}
	success = true
	return nil
}

// PutAll stores content under every supported digest in hashes.
func (c *Cache) PutAll(hashes map[string]string, content []byte) error {
	for algo, digest := range hashes {
		if !hashing.Supported(algo) {
			continue
		}
		if err := c.Put(algo, digest, content); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether an entry exists without verifying it.
func (c *Cache) Has(algo, digest string) bool {
	path, err := c.objectPath(algo, digest)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Size returns the total size of the cache in bytes.
func (c *Cache) Size() (int64, error) {
	var total int64
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Path returns the cache directory.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) objectPath(algo, digest string) (string, error) {
	algo = strings.ToLower(algo)
	if !hashing.Supported(algo) {
		return "", fmt.Errorf("cache: unsupported algorithm %q", algo)
	}
	digest = strings.ToLower(digest)
	if digest == "" || strings.ContainsAny(digest, `/\.`) {
		return "", fmt.Errorf("cache: invalid digest %q", digest)
	}
	if len(digest) < 2 {
		return filepath.Join(c.dir, "objects", algo, digest), nil
	}
	return filepath.Join(c.dir, "objects", algo, digest[:2], digest), nil
}
